package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propline/leads-cli/internal/model"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage sales agents",
}

var agentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new agent",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		a := &model.Agent{Name: name, Email: email}
		if err := st.CreateAgent(ctx, a); err != nil {
			return eris.Wrap(err, "agents add")
		}

		fmt.Printf("Added agent %s (%s)\n", a.ID, a.Email)
		return nil
	},
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		agents, err := st.ListAgents(ctx)
		if err != nil {
			return eris.Wrap(err, "agents list")
		}
		if len(agents) == 0 {
			fmt.Fprintln(os.Stderr, "No agents found.")
			return nil
		}

		formatAgentsList(os.Stdout, agents)
		return nil
	},
}

var agentsBlockCmd = &cobra.Command{
	Use:   "block <agent-id>",
	Short: "Block an agent from receiving leads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAgentBlocked(cmd, args[0], true)
	},
}

var agentsUnblockCmd = &cobra.Command{
	Use:   "unblock <agent-id>",
	Short: "Unblock an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAgentBlocked(cmd, args[0], false)
	},
}

func setAgentBlocked(cmd *cobra.Command, agentID string, blocked bool) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.SetAgentBlocked(ctx, agentID, blocked); err != nil {
		return eris.Wrap(err, "agents block")
	}

	state := "unblocked"
	if blocked {
		state = "blocked"
	}
	fmt.Printf("Agent %s is now %s\n", agentID, state)
	return nil
}

func formatAgentsList(out io.Writer, agents []model.Agent) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tBLOCKED")
	for _, a := range agents {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", truncateID(a.ID), a.Name, a.Email, a.Blocked)
	}
	_ = w.Flush()
}

func init() {
	agentsAddCmd.Flags().String("name", "", "agent display name (required)")
	agentsAddCmd.Flags().String("email", "", "agent email (required)")
	_ = agentsAddCmd.MarkFlagRequired("name")
	_ = agentsAddCmd.MarkFlagRequired("email")

	agentsCmd.AddCommand(agentsAddCmd)
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsBlockCmd)
	agentsCmd.AddCommand(agentsUnblockCmd)
	rootCmd.AddCommand(agentsCmd)
}
