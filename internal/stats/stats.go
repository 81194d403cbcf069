// Package stats aggregates the dashboard overview numbers from the lead
// and agent tables.
package stats

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/store"
)

// recentWindow is how far back a lead counts as recently added.
const recentWindow = 7 * 24 * time.Hour

// Overview is the aggregate snapshot shown on the admin dashboard.
type Overview struct {
	TotalLeads       int            `json:"totalLeads"`
	ByStatus         map[string]int `json:"byStatus"`
	Unassigned       int            `json:"unassigned"`
	RecentLeads      int            `json:"recentLeads"`
	TotalAgents      int            `json:"totalAgents"`
	ActiveAgents     int            `json:"activeAgents"`
	LastSystemUpdate time.Time      `json:"lastSystemUpdate"`
}

// Collect builds the overview from the current store contents. ActiveAgents
// counts agents that hold at least one lead; LastSystemUpdate is the newest
// lead modification time.
func Collect(ctx context.Context, st store.Store, now time.Time) (*Overview, error) {
	leads, err := st.ListLeads(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "stats: load leads")
	}
	agents, err := st.ListAgents(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "stats: load agents")
	}

	ov := &Overview{
		TotalLeads:  len(leads),
		ByStatus:    make(map[string]int, len(model.LeadStatuses)),
		TotalAgents: len(agents),
	}
	for _, s := range model.LeadStatuses {
		ov.ByStatus[string(s)] = 0
	}

	recentCutoff := now.Add(-recentWindow)
	holding := make(map[string]struct{})

	for i := range leads {
		l := &leads[i]
		ov.ByStatus[string(l.Status)]++
		if l.AssignedAgentID == "" {
			ov.Unassigned++
		} else {
			holding[l.AssignedAgentID] = struct{}{}
		}
		if l.CreatedAt.After(recentCutoff) {
			ov.RecentLeads++
		}
		if l.UpdatedAt.After(ov.LastSystemUpdate) {
			ov.LastSystemUpdate = l.UpdatedAt
		}
	}

	for _, a := range agents {
		if _, ok := holding[a.ID]; ok {
			ov.ActiveAgents++
		}
	}

	return ov, nil
}
