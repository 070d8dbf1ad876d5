package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/forms-intake/internal/samples"
)

func newSamplesCmd() *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Render one synthetic form per form type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := samples.WriteAll(out, format)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "test_forms", "Output directory")
	cmd.Flags().StringVar(&format, "format", samples.FormatPNG, "png or pdf")
	return cmd
}
