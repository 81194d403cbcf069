package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard overview",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ov, err := stats.Collect(ctx, st, time.Now().UTC())
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		formatOverview(os.Stdout, ov)
		return nil
	},
}

func formatOverview(out io.Writer, ov *stats.Overview) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total leads:\t%d\n", ov.TotalLeads)
	for _, s := range model.LeadStatuses {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", s, ov.ByStatus[string(s)])
	}
	_, _ = fmt.Fprintf(w, "Unassigned:\t%d\n", ov.Unassigned)
	_, _ = fmt.Fprintf(w, "Added last 7 days:\t%d\n", ov.RecentLeads)
	_, _ = fmt.Fprintf(w, "Agents:\t%d (%d active)\n", ov.TotalAgents, ov.ActiveAgents)
	if !ov.LastSystemUpdate.IsZero() {
		_, _ = fmt.Fprintf(w, "Last update:\t%s\n", ov.LastSystemUpdate.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
