// Package assign implements bulk lead reassignment with assignment history.
package assign

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/store"
)

// Result reports the outcome of a bulk assignment.
type Result struct {
	Assigned  []model.Lead `json:"assigned"`
	Failed    []string     `json:"failed,omitempty"`
	AgentName string       `json:"agentName"`
}

// Engine performs bulk reassignment against a store.
type Engine struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// BulkAssign moves the given leads to an agent, appending an assignment
// record to each lead's history and resetting its status to New. The target
// agent must exist and not be blocked; that failure aborts the whole call.
// An unknown lead id is skipped and reported in Result.Failed, and the
// remaining leads are still committed in one atomic write.
func (e *Engine) BulkAssign(ctx context.Context, leadIDs []string, agentID, actorID string) (*Result, error) {
	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, eris.Wrapf(err, "assign: resolve agent %s", agentID)
	}
	if agent.Blocked {
		return nil, eris.Errorf("assign: agent %s (%s) is blocked", agent.Name, agentID)
	}

	res := &Result{AgentName: agent.Name}
	now := e.now().UTC()

	for _, id := range leadIDs {
		lead, err := e.store.GetLead(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				res.Failed = append(res.Failed, id)
				continue
			}
			return nil, eris.Wrapf(err, "assign: load lead %s", id)
		}

		lead.History = append(lead.History, model.AssignmentRecord{
			PreviousAgentID:    lead.AssignedAgentID,
			PreviousAgentEmail: lead.AssignedAgentEmail,
			ReassignedBy:       actorID,
			ReassignedAt:       now,
		})
		lead.AssignedAgentID = agent.ID
		lead.AssignedAgentEmail = agent.Email
		lead.Status = model.StatusNew
		lead.UpdatedAt = now

		res.Assigned = append(res.Assigned, *lead)
	}

	if len(res.Assigned) > 0 {
		if err := e.store.WriteLeadsAtomic(ctx, res.Assigned); err != nil {
			return nil, eris.Wrap(err, "assign: commit reassignment")
		}
	}

	if err := e.store.LogActivity(ctx, model.ActivityEntry{
		Action:  model.ActionBulkAssign,
		ActorID: actorID,
		Detail: map[string]any{
			"agent_id": agent.ID,
			"assigned": len(res.Assigned),
			"failed":   len(res.Failed),
		},
		CreatedAt: now,
	}); err != nil {
		zap.L().Warn("assign: activity log write failed", zap.Error(err))
	}

	zap.L().Info("bulk assignment complete",
		zap.String("agent", agent.Name),
		zap.Int("assigned", len(res.Assigned)),
		zap.Int("failed", len(res.Failed)))

	return res, nil
}
