package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
)

func newSweepCmd(a *app) *cobra.Command {
	var req diffusioncoefficient.SweepRequest
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Tabulate D_AB over a range of xA (xB = 1 - xA)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			profile, err := a.calc.Sweep(ctx, req)
			if err != nil {
				return err
			}

			if a.output == "json" {
				return writeJSON(cmd.OutOrStdout(), profile)
			}
			newPrinter(cmd.OutOrStdout()).profile(profile)
			return nil
		},
	}

	cmd.Flags().Float64Var(&req.From, "from", 0.05, "first xA of the grid")
	cmd.Flags().Float64Var(&req.To, "to", 0.95, "last xA of the grid")
	cmd.Flags().IntVar(&req.Steps, "steps", 18, "number of intervals between from and to")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "abort the sweep after this long")

	return cmd
}
