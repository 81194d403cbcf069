package assign

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedLead(t *testing.T, st store.Store, phone string) model.Lead {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	lead := model.Lead{
		ID:              uuid.New().String(),
		FullName:        "Ali Raza",
		NormalizedPhone: phone,
		Status:          model.StatusContacted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, st.WriteLeadsAtomic(context.Background(), []model.Lead{lead}))
	return lead
}

func seedAgent(t *testing.T, st store.Store, name, email string) *model.Agent {
	t.Helper()

	a := &model.Agent{Name: name, Email: email}
	require.NoError(t, st.CreateAgent(context.Background(), a))
	return a
}

func TestBulkAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns and records history", func(t *testing.T) {
		st := newTestStore(t)
		agent := seedAgent(t, st, "Sara Khan", "sara@propline.example")
		lead := seedLead(t, st, "+923347600608")

		e := New(st)
		res, err := e.BulkAssign(ctx, []string{lead.ID}, agent.ID, "admin-1")
		require.NoError(t, err)

		assert.Equal(t, "Sara Khan", res.AgentName)
		require.Len(t, res.Assigned, 1)
		assert.Empty(t, res.Failed)

		got, err := st.GetLead(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, agent.ID, got.AssignedAgentID)
		assert.Equal(t, agent.Email, got.AssignedAgentEmail)
		assert.Equal(t, model.StatusNew, got.Status, "reassignment resets the pipeline status")

		require.Len(t, got.History, 1)
		assert.Empty(t, got.History[0].PreviousAgentID, "first assignment records an empty previous agent")
		assert.Equal(t, "admin-1", got.History[0].ReassignedBy)
	})

	t.Run("history accumulates across reassignments", func(t *testing.T) {
		st := newTestStore(t)
		first := seedAgent(t, st, "Sara Khan", "sara@propline.example")
		second := seedAgent(t, st, "Bilal Ahmed", "bilal@propline.example")
		lead := seedLead(t, st, "+923347600608")

		e := New(st)
		_, err := e.BulkAssign(ctx, []string{lead.ID}, first.ID, "admin-1")
		require.NoError(t, err)
		_, err = e.BulkAssign(ctx, []string{lead.ID}, second.ID, "admin-2")
		require.NoError(t, err)

		got, err := st.GetLead(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, got.History, 2)
		assert.Equal(t, first.ID, got.History[1].PreviousAgentID)
		assert.Equal(t, "admin-2", got.History[1].ReassignedBy)
	})

	t.Run("unknown lead skipped, rest committed", func(t *testing.T) {
		st := newTestStore(t)
		agent := seedAgent(t, st, "Sara Khan", "sara@propline.example")
		lead := seedLead(t, st, "+923347600608")

		e := New(st)
		res, err := e.BulkAssign(ctx, []string{"missing", lead.ID}, agent.ID, "admin-1")
		require.NoError(t, err)

		assert.Equal(t, []string{"missing"}, res.Failed)
		require.Len(t, res.Assigned, 1)

		got, err := st.GetLead(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, agent.ID, got.AssignedAgentID)
	})

	t.Run("unknown agent is fatal", func(t *testing.T) {
		st := newTestStore(t)
		lead := seedLead(t, st, "+923347600608")

		e := New(st)
		_, err := e.BulkAssign(ctx, []string{lead.ID}, "missing", "admin-1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		got, err := st.GetLead(ctx, lead.ID)
		require.NoError(t, err)
		assert.Empty(t, got.AssignedAgentID, "nothing changes when the agent lookup fails")
	})

	t.Run("blocked agent is fatal", func(t *testing.T) {
		st := newTestStore(t)
		agent := seedAgent(t, st, "Sara Khan", "sara@propline.example")
		require.NoError(t, st.SetAgentBlocked(ctx, agent.ID, true))
		lead := seedLead(t, st, "+923347600608")

		e := New(st)
		_, err := e.BulkAssign(ctx, []string{lead.ID}, agent.ID, "admin-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blocked")
	})

	t.Run("records activity", func(t *testing.T) {
		st := newTestStore(t)
		agent := seedAgent(t, st, "Sara Khan", "sara@propline.example")
		lead := seedLead(t, st, "+923347600608")

		e := New(st)
		_, err := e.BulkAssign(ctx, []string{lead.ID, "missing"}, agent.ID, "admin-1")
		require.NoError(t, err)

		entries, err := st.ListActivity(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, model.ActionBulkAssign, entries[0].Action)
		assert.Equal(t, float64(1), entries[0].Detail["assigned"])
		assert.Equal(t, float64(1), entries[0].Detail["failed"])
	})
}

type failingStore struct {
	store.Store
}

func (f *failingStore) WriteLeadsAtomic(ctx context.Context, leads []model.Lead) error {
	return eris.New("disk full")
}

func TestBulkAssign_CommitFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	agent := seedAgent(t, st, "Sara Khan", "sara@propline.example")
	lead := seedLead(t, st, "+923347600608")

	e := New(&failingStore{Store: st})
	_, err := e.BulkAssign(ctx, []string{lead.ID}, agent.ID, "admin-1")
	require.Error(t, err)

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AssignedAgentID)
	assert.Empty(t, got.History)
}
