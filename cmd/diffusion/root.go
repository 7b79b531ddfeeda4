package main

import (
	"fmt"

	"github.com/spf13/cobra"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/logger"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/config"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	output     string
	verbose    bool

	calc *diffusioncoefficient.Calculator
	log  ports.Logger
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "diffusion",
		Short: "Binary diffusion coefficient (Vignes/UNIFAC correlation) calculator",
		Long: `Computes D_AB for a binary mixture from its mole fractions and reports the
deviation from the reference diffusivity.

Examples:
  diffusion evaluate --xa 0.5 --xb 0.5
  diffusion sweep --from 0.1 --to 0.9 --steps 8 --output json
  diffusion batch compositions.csv`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file (YAML) providing the parameter set")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format: text or json")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "show the individual terms and debug logs")

	root.AddCommand(
		newEvaluateCmd(a),
		newSweepCmd(a),
		newBatchCmd(a),
		newParamsCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.output != "text" && a.output != "json" {
		return fmt.Errorf("invalid output format: %s. Must be 'text' or 'json'", a.output)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	opts := []diffusioncoefficient.Option{
		diffusioncoefficient.WithParameters(cfg.EffectiveParameters()),
		diffusioncoefficient.WithSweepConcurrency(cfg.Sweep.Concurrency),
		diffusioncoefficient.WithSweepMaxSteps(cfg.Sweep.MaxSteps),
	}
	if a.verbose {
		a.log, err = logger.New(logger.Options{Output: cmd.ErrOrStderr(), Level: logger.LevelDebug, Sync: true})
		if err != nil {
			return err
		}
		opts = append(opts, diffusioncoefficient.WithPortsLogger(a.log))
	} else {
		opts = append(opts, diffusioncoefficient.WithQuietLogger())
	}

	a.calc, err = diffusioncoefficient.New(opts...)
	return err
}

// close releases the logger set up for the command. It runs whether or not
// the command succeeded.
func (a *app) close() error {
	if a.log == nil {
		return nil
	}
	err := a.log.Close()
	a.log = nil
	return err
}
