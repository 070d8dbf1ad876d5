package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/forms-intake/internal/export"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <acknowledgment-id>",
		Short: "Show the status of a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			view, err := svc.Processor.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}

func newRevalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revalidate <acknowledgment-id>...",
		Short: "Re-run required-field validation over stored data",
		Long: `revalidate recomputes missing fields and status from the stored structured data, for example
after the required-field lists changed. No inference calls are made.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()
			for _, ack := range args {
				view, err := svc.Processor.Revalidate(cmd.Context(), ack)
				if err != nil {
					return fmt.Errorf("%s: %w", ack, err)
				}
				if err := printJSON(cmd.OutOrStdout(), view); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var fromStr, toStr, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export submissions to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := export.ParseDate(fromStr)
			if err != nil {
				return err
			}
			to, err := export.ParseDate(toStr)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("submissions-%s.xlsx", time.Now().Format("20060102"))
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			svc, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			data, err := svc.Exporter.SubmissionsXLSX(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", "", "From date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&toStr, "to", "", "To date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default submissions-<date>.xlsx)")
	return cmd
}
