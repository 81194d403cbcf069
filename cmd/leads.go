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

	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/phone"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and manage leads",
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.ListLeads(ctx)
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		status, _ := cmd.Flags().GetString("status")
		agent, _ := cmd.Flags().GetString("agent")

		var filtered []model.Lead
		for _, l := range leads {
			if status != "" && string(l.Status) != status {
				continue
			}
			if agent != "" && l.AssignedAgentID != agent {
				continue
			}
			filtered = append(filtered, l)
		}

		if len(filtered) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		formatLeadsList(os.Stdout, filtered)
		return nil
	},
}

// -- leads add --

var leadsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a single lead",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("name")
		rawPhone, _ := cmd.Flags().GetString("phone")
		email, _ := cmd.Flags().GetString("email")
		location, _ := cmd.Flags().GetString("location")
		source, _ := cmd.Flags().GetString("source")
		notes, _ := cmd.Flags().GetString("notes")
		actor, _ := cmd.Flags().GetString("actor")

		normalized, err := phone.Normalize(rawPhone)
		if err != nil {
			return eris.Wrap(err, "leads add")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		now := time.Now().UTC()
		lead := model.Lead{
			ID:              uuid.New().String(),
			FullName:        name,
			NormalizedPhone: normalized,
			Email:           email,
			Location:        location,
			Source:          source,
			Notes:           notes,
			Status:          model.StatusNew,
			ImportedBy:      actor,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := st.WriteLeadsAtomic(ctx, []model.Lead{lead}); err != nil {
			return eris.Wrap(err, "leads add")
		}

		fmt.Printf("Added lead %s (%s)\n", lead.ID, normalized)
		return nil
	},
}

// -- leads status --

var leadsStatusCmd = &cobra.Command{
	Use:   "status <lead-id> <status>",
	Short: "Update a lead's pipeline status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status := model.LeadStatus(args[1])
		if !model.ValidLeadStatus(status) {
			return eris.Errorf("invalid status %q (valid: %v)", args[1], model.LeadStatuses)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.UpdateLeadStatus(ctx, args[0], status); err != nil {
			return eris.Wrap(err, "leads status")
		}

		fmt.Printf("Lead %s is now %s\n", args[0], status)
		return nil
	},
}

func init() {
	leadsListCmd.Flags().String("status", "", "filter by pipeline status")
	leadsListCmd.Flags().String("agent", "", "filter by assigned agent ID")

	leadsAddCmd.Flags().String("name", "", "lead full name")
	leadsAddCmd.Flags().String("phone", "", "lead phone number (required)")
	leadsAddCmd.Flags().String("email", "", "lead email")
	leadsAddCmd.Flags().String("location", "", "area of interest")
	leadsAddCmd.Flags().String("source", "", "lead source")
	leadsAddCmd.Flags().String("notes", "", "free-form notes")
	leadsAddCmd.Flags().String("actor", "", "ID of the admin adding the lead")
	_ = leadsAddCmd.MarkFlagRequired("phone")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsAddCmd)
	leadsCmd.AddCommand(leadsStatusCmd)
	rootCmd.AddCommand(leadsCmd)
}

// formatLeadsList writes a tabular list of leads to out.
func formatLeadsList(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tPHONE\tSTATUS\tAGENT\tCREATED")
	for _, l := range leads {
		name := l.FullName
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(l.ID),
			name,
			l.NormalizedPhone,
			l.Status,
			l.AssignedAgentEmail,
			l.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
