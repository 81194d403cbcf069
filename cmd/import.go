package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propline/leads-cli/internal/importer"
	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/tabular"
)

var (
	importCSVPath  string
	importXLSXPath string
	importSheet    string
	importAgentID  string
	importActorID  string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from a CSV or XLSX sheet",
	Long:  "Parses a lead sheet, validates and normalizes phone numbers, skips duplicates, and writes the accepted leads in one atomic batch. With --agent the whole batch is assigned to that agent.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, err := readLeadSheet()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := importer.New(st)

		var res *importer.Result
		if importAgentID != "" {
			res, err = p.ImportAndAssign(ctx, records, importAgentID, importActorID)
		} else {
			res, err = p.ImportBatch(ctx, records, importActorID)
		}
		if err != nil {
			return eris.Wrap(err, "import")
		}

		formatImportResult(os.Stdout, res)

		zap.L().Info("import complete",
			zap.Int("imported", res.Summary.Imported),
			zap.Int("duplicates", res.Summary.Duplicates),
			zap.Int("total", res.Summary.Total),
		)
		return nil
	},
}

func readLeadSheet() ([]model.RawLead, error) {
	switch {
	case importCSVPath != "" && importXLSXPath != "":
		return nil, eris.New("use either --csv or --xlsx, not both")
	case importCSVPath != "":
		f, err := os.Open(importCSVPath)
		if err != nil {
			return nil, eris.Wrap(err, "open csv")
		}
		defer f.Close() //nolint:errcheck
		return tabular.ReadCSV(f)
	case importXLSXPath != "":
		return tabular.ReadXLSX(importXLSXPath, importSheet)
	default:
		return nil, eris.New("either --csv or --xlsx is required")
	}
}

// formatImportResult writes the batch summary and rejected rows to out.
func formatImportResult(out io.Writer, res *importer.Result) {
	fmt.Fprintf(out, "Imported %d of %d leads (%d duplicates)\n",
		res.Summary.Imported, res.Summary.Total, res.Summary.Duplicates)

	if len(res.Rejected) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REASON\tNAME\tPHONE\tDETAIL")
	for _, rej := range res.Rejected {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rej.Reason,
			rej.Record.Field(model.FieldFullName),
			rej.Record.Field(model.FieldMobileNo),
			rej.Detail,
		)
	}
	_ = w.Flush()
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV lead sheet")
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to XLSX lead sheet")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().StringVar(&importAgentID, "agent", "", "assign the whole batch to this agent ID")
	importCmd.Flags().StringVar(&importActorID, "actor", "", "ID of the admin performing the import")
	rootCmd.AddCommand(importCmd)
}
