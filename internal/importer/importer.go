// Package importer turns raw tabular lead records into persisted leads.
// A batch is validated and deduplicated up front, then written in a single
// atomic store transaction so a mid-batch failure never leaves partial data.
package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/propline/leads-cli/internal/dedup"
	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/phone"
	"github.com/propline/leads-cli/internal/store"
)

// RejectReason classifies why a record was excluded from a batch.
type RejectReason string

const (
	ReasonNoPhone        RejectReason = "no_phone"
	ReasonInvalidPhone   RejectReason = "invalid_phone"
	ReasonDuplicatePhone RejectReason = "duplicate_phone"
)

// Rejection pairs a skipped record with the reason it was skipped.
type Rejection struct {
	Record model.RawLead `json:"record"`
	Reason RejectReason  `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// Summary is the per-batch outcome reported to the caller.
type Summary struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Total      int `json:"total"`
}

// Result holds the accepted leads and everything that was filtered out.
type Result struct {
	Accepted []model.Lead `json:"accepted"`
	Rejected []Rejection  `json:"rejected"`
	Summary  Summary      `json:"summary"`
}

// Pipeline validates, deduplicates and persists lead batches.
type Pipeline struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Pipeline {
	return &Pipeline{store: st, now: time.Now}
}

// ImportBatch processes raw records and persists the accepted ones in a
// single atomic write. Records without a usable phone, with an invalid
// phone, or whose normalized phone already exists (in the store or earlier
// in the same batch) are rejected; the rest of the batch still imports.
func (p *Pipeline) ImportBatch(ctx context.Context, records []model.RawLead, actorID string) (*Result, error) {
	return p.runImport(ctx, records, "", "", actorID)
}

// ImportAndAssign behaves like ImportBatch but assigns every accepted lead
// to the given agent as part of the same atomic write. The agent must exist
// and not be blocked.
func (p *Pipeline) ImportAndAssign(ctx context.Context, records []model.RawLead, agentID, actorID string) (*Result, error) {
	agent, err := p.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: resolve agent %s", agentID)
	}
	if agent.Blocked {
		return nil, eris.Errorf("importer: agent %s (%s) is blocked", agent.Name, agentID)
	}
	return p.runImport(ctx, records, agent.ID, agent.Email, actorID)
}

func (p *Pipeline) runImport(ctx context.Context, records []model.RawLead, agentID, agentEmail, actorID string) (*Result, error) {
	existing, err := p.store.ListLeads(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "importer: load existing leads")
	}

	phones := make([]string, 0, len(existing))
	for i := range existing {
		phones = append(phones, existing[i].NormalizedPhone)
	}
	index := dedup.NewIndex(phones)

	res := &Result{Summary: Summary{Total: len(records)}}
	now := p.now().UTC()

	for _, rec := range records {
		raw := rec.Field(model.FieldMobileNo)
		if raw == "" {
			res.Rejected = append(res.Rejected, Rejection{Record: rec, Reason: ReasonNoPhone})
			continue
		}

		normalized, err := phone.Normalize(raw)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{
				Record: rec,
				Reason: ReasonInvalidPhone,
				Detail: err.Error(),
			})
			continue
		}

		if !index.CheckAndAdd(normalized) {
			res.Rejected = append(res.Rejected, Rejection{
				Record: rec,
				Reason: ReasonDuplicatePhone,
				Detail: normalized,
			})
			res.Summary.Duplicates++
			continue
		}

		lead := model.Lead{
			ID:                 uuid.New().String(),
			FullName:           rec.Field(model.FieldFullName),
			NormalizedPhone:    normalized,
			Email:              rec.Field(model.FieldEmail),
			PropertyType:       rec.Field(model.FieldPropertyType),
			Budget:             rec.Field(model.FieldBudget),
			Location:           rec.Field(model.FieldLocation),
			Source:             rec.Field(model.FieldSource),
			Notes:              rec.Field(model.FieldNotes),
			Status:             model.StatusNew,
			AssignedAgentID:    agentID,
			AssignedAgentEmail: agentEmail,
			ImportedBy:         actorID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if agentID != "" {
			// An import with a target agent is also that lead's first
			// assignment; record it so the history starts at import time.
			lead.History = append(lead.History, model.AssignmentRecord{
				ReassignedBy: actorID,
				ReassignedAt: now,
			})
		}
		res.Accepted = append(res.Accepted, lead)
	}

	res.Summary.Imported = len(res.Accepted)

	if len(res.Accepted) > 0 {
		if err := p.store.WriteLeadsAtomic(ctx, res.Accepted); err != nil {
			return nil, eris.Wrap(err, "importer: persist batch")
		}
	}

	if err := p.store.LogActivity(ctx, model.ActivityEntry{
		Action:  model.ActionImport,
		ActorID: actorID,
		Detail: map[string]any{
			"imported":   res.Summary.Imported,
			"duplicates": res.Summary.Duplicates,
			"total":      res.Summary.Total,
			"agent_id":   agentID,
		},
		CreatedAt: now,
	}); err != nil {
		zap.L().Warn("importer: activity log write failed", zap.Error(err))
	}

	zap.L().Info("import batch complete",
		zap.Int("imported", res.Summary.Imported),
		zap.Int("duplicates", res.Summary.Duplicates),
		zap.Int("total", res.Summary.Total))

	return res, nil
}
