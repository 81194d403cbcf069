package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propline/leads-cli/internal/model"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the recent activity log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := st.ListActivity(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "activity")
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No activity recorded.")
			return nil
		}

		formatActivity(os.Stdout, entries)
		return nil
	},
}

func formatActivity(out io.Writer, entries []model.ActivityEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tACTION\tACTOR\tDETAIL")
	for _, e := range entries {
		detail, _ := json.Marshal(e.Detail)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Action, e.ActorID, detail)
	}
	_ = w.Flush()
}

func init() {
	activityCmd.Flags().Int("limit", 50, "max number of entries to display")
	rootCmd.AddCommand(activityCmd)
}
