package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propline/leads-cli/internal/assign"
)

var (
	assignAgentID string
	assignActorID string
)

var assignCmd = &cobra.Command{
	Use:   "assign <lead-id> [lead-id...]",
	Short: "Reassign leads to an agent",
	Long:  "Moves the given leads to an agent in one atomic commit. Each lead keeps a history of previous assignments; unknown lead IDs are skipped and reported.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := assign.New(st).BulkAssign(ctx, args, assignAgentID, assignActorID)
		if err != nil {
			return eris.Wrap(err, "assign")
		}

		fmt.Printf("Assigned %d lead(s) to %s\n", len(res.Assigned), res.AgentName)
		if len(res.Failed) > 0 {
			fmt.Fprintf(os.Stderr, "Skipped unknown lead IDs: %s\n", strings.Join(res.Failed, ", "))
		}

		zap.L().Info("assignment complete",
			zap.String("agent", res.AgentName),
			zap.Int("assigned", len(res.Assigned)),
			zap.Int("failed", len(res.Failed)),
		)
		return nil
	},
}

func init() {
	assignCmd.Flags().StringVar(&assignAgentID, "agent", "", "target agent ID (required)")
	assignCmd.Flags().StringVar(&assignActorID, "actor", "", "ID of the admin performing the reassignment")
	_ = assignCmd.MarkFlagRequired("agent")
	rootCmd.AddCommand(assignCmd)
}
