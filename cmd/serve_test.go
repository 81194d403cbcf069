package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propline/leads-cli/internal/config"
	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	testCfg := &config.Config{
		FollowUps: config.FollowUpsConfig{UpcomingWindowDays: 3},
	}
	return newRouter(st, testCfg), st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeImport(t *testing.T) {
	handler, st := newTestRouter(t)

	body := map[string]any{
		"records": []map[string]string{
			{"fullName": "Ali Raza", "mobileNo": "+92 334 7600608"},
			{"fullName": "Dup", "mobileNo": "0092-334-7600608"},
			{"fullName": "No Phone"},
		},
		"actorId": "admin-1",
	}
	rec := doJSON(t, handler, http.MethodPost, "/import", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Summary struct {
			Imported   int `json:"imported"`
			Duplicates int `json:"duplicates"`
			Total      int `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Summary.Imported)
	assert.Equal(t, 1, res.Summary.Duplicates)
	assert.Equal(t, 3, res.Summary.Total)

	leads, err := st.ListLeads(context.Background())
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestServeImportBadBody(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeAssign(t *testing.T) {
	handler, st := newTestRouter(t)
	ctx := context.Background()

	agent := &model.Agent{Name: "Sara Khan", Email: "sara@propline.example"}
	require.NoError(t, st.CreateAgent(ctx, agent))

	now := time.Now().UTC()
	lead := model.Lead{
		ID:              uuid.New().String(),
		FullName:        "Ali Raza",
		NormalizedPhone: "+923347600608",
		Status:          model.StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, st.WriteLeadsAtomic(ctx, []model.Lead{lead}))

	rec := doJSON(t, handler, http.MethodPost, "/assign", map[string]any{
		"leadIds": []string{lead.ID, "missing"},
		"agentId": agent.ID,
		"actorId": "admin-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		AgentName string   `json:"agentName"`
		Failed    []string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Sara Khan", res.AgentName)
	assert.Equal(t, []string{"missing"}, res.Failed)
}

func TestServeAssignUnknownAgent(t *testing.T) {
	handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/assign", map[string]any{
		"leadIds": []string{"some-lead"},
		"agentId": "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeBadge(t *testing.T) {
	handler, st := newTestRouter(t)
	ctx := context.Background()

	agent := &model.Agent{Name: "Sara Khan", Email: "sara@propline.example"}
	require.NoError(t, st.CreateAgent(ctx, agent))

	now := time.Now().UTC()
	lead := model.Lead{
		ID:              uuid.New().String(),
		FullName:        "Ali Raza",
		NormalizedPhone: "+923347600608",
		Status:          model.StatusNew,
		AssignedAgentID: agent.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, st.WriteLeadsAtomic(ctx, []model.Lead{lead}))
	require.NoError(t, st.AddFollowUp(ctx, model.FollowUp{
		ID:        uuid.New().String(),
		LeadID:    lead.ID,
		DueAt:     now,
		Status:    model.FollowUpScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	rec := doJSON(t, handler, http.MethodGet, "/agents/"+agent.ID+"/followups/badge", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Badge      int `json:"badge"`
		TodayCount int `json:"todayCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.TodayCount)
	assert.Equal(t, 1, report.Badge)

	rec = doJSON(t, handler, http.MethodGet, "/agents/missing/followups/badge", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeStats(t *testing.T) {
	handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ov struct {
		TotalLeads int            `json:"totalLeads"`
		ByStatus   map[string]int `json:"byStatus"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ov))
	assert.Zero(t, ov.TotalLeads)
	assert.Contains(t, ov.ByStatus, "New")
}

func TestServeLeadNotFound(t *testing.T) {
	handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/leads/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
