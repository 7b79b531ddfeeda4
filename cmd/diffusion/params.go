package main

import (
	"github.com/spf13/cobra"
)

func newParamsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Show the correlation parameters in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := a.calc.Parameters()
			if a.output == "json" {
				return writeJSON(cmd.OutOrStdout(), params)
			}
			newPrinter(cmd.OutOrStdout()).parameters(params)
			return nil
		},
	}
}
