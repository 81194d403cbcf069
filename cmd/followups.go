package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propline/leads-cli/internal/followup"
	"github.com/propline/leads-cli/internal/model"
)

var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "Manage follow-up reminders",
}

// -- followups badge --

var followupsBadgeCmd = &cobra.Command{
	Use:   "badge <agent-id>",
	Short: "Show an agent's follow-up reminder badge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		report, err := followup.ForAgent(ctx, st, args[0], time.Now(), cfg.FollowUps.UpcomingWindowDays)
		if err != nil {
			return eris.Wrap(err, "followups badge")
		}

		formatBadge(os.Stdout, report)
		return nil
	},
}

// -- followups add --

var followupsAddCmd = &cobra.Command{
	Use:   "add <lead-id>",
	Short: "Schedule a follow-up for a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dueStr, _ := cmd.Flags().GetString("due")
		notes, _ := cmd.Flags().GetString("notes")

		due, err := parseDue(dueStr)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		now := time.Now().UTC()
		fu := model.FollowUp{
			ID:        uuid.New().String(),
			LeadID:    args[0],
			DueAt:     due,
			Notes:     notes,
			Status:    model.FollowUpScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.AddFollowUp(ctx, fu); err != nil {
			return eris.Wrap(err, "followups add")
		}

		fmt.Printf("Scheduled follow-up %s for lead %s, due %s\n",
			fu.ID, args[0], due.Format("2006-01-02 15:04"))
		return nil
	},
}

// -- followups set-status --

var followupsSetStatusCmd = &cobra.Command{
	Use:   "set-status <lead-id> <followup-id> <status>",
	Short: "Move a follow-up through its lifecycle",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status := model.FollowUpStatus(args[2])
		if !model.ValidFollowUpStatus(status) {
			return eris.Errorf("invalid follow-up status %q", args[2])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.UpdateFollowUpStatus(ctx, args[0], args[1], status); err != nil {
			return eris.Wrap(err, "followups set-status")
		}

		fmt.Printf("Follow-up %s is now %s\n", args[1], status)
		return nil
	},
}

// parseDue accepts a date or a date-time in the local timezone.
func parseDue(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("invalid --due %q (expected YYYY-MM-DD or YYYY-MM-DD HH:MM)", s)
}

func formatBadge(out io.Writer, report *followup.BadgeReport) {
	fmt.Fprintf(out, "Badge: %d (today %d, upcoming %d, overdue %d)\n",
		report.Badge, report.TodayCount, report.UpcomingCount, report.OverdueCount)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	writeBucket := func(label string, fus []model.FollowUp) {
		for _, fu := range fus {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				label, truncateID(fu.LeadID), fu.DueAt.Format("2006-01-02 15:04"), fu.Notes)
		}
	}
	writeBucket("OVERDUE", report.Items.Overdue)
	writeBucket("TODAY", report.Items.Today)
	writeBucket("UPCOMING", report.Items.Upcoming)
	_ = w.Flush()
}

func init() {
	followupsAddCmd.Flags().String("due", "", "due date, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\" (required)")
	followupsAddCmd.Flags().String("notes", "", "reminder notes")
	_ = followupsAddCmd.MarkFlagRequired("due")

	followupsCmd.AddCommand(followupsBadgeCmd)
	followupsCmd.AddCommand(followupsAddCmd)
	followupsCmd.AddCommand(followupsSetStatusCmd)
	rootCmd.AddCommand(followupsCmd)
}
