// Package store persists leads, agents, follow-ups, and the activity log
// behind one interface with SQLite and Postgres implementations.
package store

import (
	"context"
	"errors"

	"github.com/propline/leads-cli/internal/model"
)

// Sentinel errors. Callers distinguish them with errors.Is after unwrapping.
var (
	// ErrNotFound is returned when a referenced lead, agent, or follow-up
	// does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a write violates the unique index on
	// normalized_phone. The storage layer is the final arbiter of phone
	// uniqueness; the in-memory dedup pass is advisory.
	ErrDuplicate = errors.New("store: duplicate normalized phone")
)

// Store defines the persistence interface for the lead ingestion core.
// WriteLeadsAtomic is the only multi-record write and is all-or-nothing:
// a failure persists none of the rows.
type Store interface {
	// Leads
	ListLeads(ctx context.Context) ([]model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	GetLeadByPhone(ctx context.Context, normalizedPhone string) (*model.Lead, error)
	WriteLeadsAtomic(ctx context.Context, leads []model.Lead) error
	UpdateLeadStatus(ctx context.Context, id string, status model.LeadStatus) error

	// Follow-ups (owned rows keyed by lead id)
	AddFollowUp(ctx context.Context, fu model.FollowUp) error
	UpdateFollowUpStatus(ctx context.Context, leadID, followUpID string, status model.FollowUpStatus) error
	ListFollowUpsByAgent(ctx context.Context, agentID string) ([]model.FollowUp, error)

	// Agents
	CreateAgent(ctx context.Context, a *model.Agent) error
	GetAgent(ctx context.Context, id string) (*model.Agent, error)
	ListAgents(ctx context.Context) ([]model.Agent, error)
	SetAgentBlocked(ctx context.Context, id string, blocked bool) error

	// Activity log
	LogActivity(ctx context.Context, e model.ActivityEntry) error
	ListActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
