package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
)

func newBatchCmd(a *app) *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "batch [file|-]",
		Short: "Evaluate one \"xA,xB\" composition per line",
		Long: `Reads compositions from a file, or from stdin when the file is "-" or
omitted. Blank lines and lines starting with '#' are skipped. Fields may be
separated by a comma, a semicolon or whitespace.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("error reading input file: %w", err)
				}
				defer f.Close()
				in = f
			}

			out := cmd.OutOrStdout()
			p := newPrinter(out)
			summary, err := a.calc.Batch(cmd.Context(), in, func(line diffusioncoefficient.BatchLine) error {
				if a.output == "json" {
					return writeJSONLine(out, line)
				}
				p.batchLine(line)
				return nil
			})
			if err != nil {
				return err
			}

			if a.output == "text" {
				p.batchSummary(summary)
			}
			if failOnError && summary.Failed > 0 {
				return fmt.Errorf("%d of %d compositions failed", summary.Failed, summary.Evaluated)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero if any line fails")

	return cmd
}
