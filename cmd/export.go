package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propline/leads-cli/internal/export"
)

var exportOutPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all leads to an XLSX sheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.ListLeads(ctx)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if err := export.WriteXLSX(exportOutPath, leads); err != nil {
			return eris.Wrap(err, "export")
		}

		fmt.Printf("Exported %d lead(s) to %s\n", len(leads), exportOutPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "out", "leads.xlsx", "output XLSX path")
	rootCmd.AddCommand(exportCmd)
}
