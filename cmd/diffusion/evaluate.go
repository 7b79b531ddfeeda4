package main

import (
	"errors"

	"github.com/spf13/cobra"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/render"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var xA, xB string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute D_AB for one composition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.calc.EvaluateStrings(xA, xB)
			if err != nil {
				kind := diffusioncoefficient.KindOf(err)
				if a.output == "json" {
					_ = writeJSON(cmd.OutOrStdout(), errorOutput{Error: err.Error(), Kind: kind.String()})
				}
				return errors.New(render.Message(kind, err.Error()))
			}

			if a.output == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			newPrinter(cmd.OutOrStdout()).result(result, a.verbose)
			return nil
		},
	}

	cmd.Flags().StringVar(&xA, "xa", "0.5", "mole fraction of A")
	cmd.Flags().StringVar(&xB, "xb", "0.5", "mole fraction of B")

	return cmd
}
