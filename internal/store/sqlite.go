package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/propline/leads-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// local driver and the backend the shared test suite runs against.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                   TEXT PRIMARY KEY,
	full_name            TEXT NOT NULL,
	normalized_phone     TEXT NOT NULL,
	email                TEXT NOT NULL DEFAULT '',
	property_type        TEXT NOT NULL DEFAULT '',
	budget               TEXT NOT NULL DEFAULT '',
	location             TEXT NOT NULL DEFAULT '',
	source               TEXT NOT NULL DEFAULT '',
	notes                TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL DEFAULT 'New',
	assigned_agent_id    TEXT NOT NULL DEFAULT '',
	assigned_agent_email TEXT NOT NULL DEFAULT '',
	history              TEXT NOT NULL DEFAULT '[]',
	imported_by          TEXT NOT NULL DEFAULT '',
	created_at           DATETIME NOT NULL,
	updated_at           DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_normalized_phone ON leads(normalized_phone);
CREATE INDEX IF NOT EXISTS idx_leads_assigned_agent ON leads(assigned_agent_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);

CREATE TABLE IF NOT EXISTS follow_ups (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	due_at     DATETIME NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'scheduled',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_follow_ups_lead_id ON follow_ups(lead_id);
CREATE INDEX IF NOT EXISTS idx_follow_ups_due_at ON follow_ups(due_at);

CREATE TABLE IF NOT EXISTS agents (
	id         TEXT PRIMARY KEY,
	auth_id    TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	blocked    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_log (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	actor_id   TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteLeadColumns = `id, full_name, normalized_phone, email, property_type, budget,
	location, source, notes, status, assigned_agent_id, assigned_agent_email,
	history, imported_by, created_at, updated_at`

func (s *SQLiteStore) ListLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteLeadColumns+` FROM leads ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads iterate")
	}

	if err := s.attachFollowUps(ctx, leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteLeadColumns+` FROM leads WHERE id = ?`, id)

	l, err := scanLead(row)
	if err != nil {
		return nil, err
	}

	fus, err := s.leadFollowUps(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.FollowUps = fus
	return l, nil
}

func (s *SQLiteStore) GetLeadByPhone(ctx context.Context, normalizedPhone string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteLeadColumns+` FROM leads WHERE normalized_phone = ?`, normalizedPhone)

	l, err := scanLead(row)
	if err != nil {
		return nil, err
	}

	fus, err := s.leadFollowUps(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.FollowUps = fus
	return l, nil
}

// WriteLeadsAtomic upserts all leads inside one transaction. Either every row
// commits or none does. A normalized-phone collision surfaces as ErrDuplicate
// and rolls the whole batch back.
func (s *SQLiteStore) WriteLeadsAtomic(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin write leads")
	}
	defer tx.Rollback()

	for i := range leads {
		historyJSON, err := json.Marshal(leads[i].History)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal history")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO leads (`+sqliteLeadColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				full_name = excluded.full_name,
				normalized_phone = excluded.normalized_phone,
				email = excluded.email,
				property_type = excluded.property_type,
				budget = excluded.budget,
				location = excluded.location,
				source = excluded.source,
				notes = excluded.notes,
				status = excluded.status,
				assigned_agent_id = excluded.assigned_agent_id,
				assigned_agent_email = excluded.assigned_agent_email,
				history = excluded.history,
				imported_by = excluded.imported_by,
				updated_at = excluded.updated_at`,
			leads[i].ID, leads[i].FullName, leads[i].NormalizedPhone, leads[i].Email,
			leads[i].PropertyType, leads[i].Budget, leads[i].Location, leads[i].Source,
			leads[i].Notes, string(leads[i].Status), leads[i].AssignedAgentID,
			leads[i].AssignedAgentEmail, string(historyJSON), leads[i].ImportedBy,
			leads[i].CreatedAt.UTC(), leads[i].UpdatedAt.UTC(),
		)
		if err != nil {
			if strings.Contains(err.Error(), "normalized_phone") {
				return eris.Wrapf(ErrDuplicate, "sqlite: write lead %s", leads[i].NormalizedPhone)
			}
			return eris.Wrapf(err, "sqlite: write lead %s", leads[i].ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit write leads")
}

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, id string, status model.LeadStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead status %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) AddFollowUp(ctx context.Context, fu model.FollowUp) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM leads WHERE id = ?`, fu.LeadID).Scan(&exists)
	if err == sql.ErrNoRows {
		return eris.Wrapf(ErrNotFound, "sqlite: lead %s", fu.LeadID)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: check lead %s", fu.LeadID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO follow_ups (id, lead_id, due_at, notes, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fu.ID, fu.LeadID, fu.DueAt.UTC(), fu.Notes, string(fu.Status),
		fu.CreatedAt.UTC(), fu.UpdatedAt.UTC())
	return eris.Wrapf(err, "sqlite: insert follow-up for lead %s", fu.LeadID)
}

func (s *SQLiteStore) UpdateFollowUpStatus(ctx context.Context, leadID, followUpID string, status model.FollowUpStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE follow_ups SET status = ?, updated_at = ? WHERE id = ? AND lead_id = ?`,
		string(status), time.Now().UTC(), followUpID, leadID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update follow-up %s", followUpID)
	}
	return checkRowsAffected(res, "follow-up", followUpID)
}

func (s *SQLiteStore) ListFollowUpsByAgent(ctx context.Context, agentID string) ([]model.FollowUp, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.lead_id, f.due_at, f.notes, f.status, f.created_at, f.updated_at
		 FROM follow_ups f
		 JOIN leads l ON l.id = f.lead_id
		 WHERE l.assigned_agent_id = ?
		 ORDER BY f.due_at`, agentID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list follow-ups for agent %s", agentID)
	}
	defer rows.Close()

	return collectFollowUps(rows)
}

func (s *SQLiteStore) CreateAgent(ctx context.Context, a *model.Agent) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, auth_id, name, email, blocked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AuthID, a.Name, a.Email, a.Blocked, a.CreatedAt, a.UpdatedAt)
	return eris.Wrapf(err, "sqlite: insert agent %s", a.Email)
}

func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, auth_id, name, email, blocked, created_at, updated_at FROM agents WHERE id = ?`, id)

	var a model.Agent
	err := row.Scan(&a.ID, &a.AuthID, &a.Name, &a.Email, &a.Blocked, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: agent %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get agent %s", id)
	}
	return &a, nil
}

func (s *SQLiteStore) ListAgents(ctx context.Context) ([]model.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, auth_id, name, email, blocked, created_at, updated_at FROM agents ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list agents")
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.AuthID, &a.Name, &a.Email, &a.Blocked, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan agent")
		}
		agents = append(agents, a)
	}
	return agents, eris.Wrap(rows.Err(), "sqlite: list agents iterate")
}

func (s *SQLiteStore) SetAgentBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET blocked = ?, updated_at = ? WHERE id = ?`,
		blocked, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set agent blocked %s", id)
	}
	return checkRowsAffected(res, "agent", id)
}

func (s *SQLiteStore) LogActivity(ctx context.Context, e model.ActivityEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	detailJSON, err := json.Marshal(e.Detail)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal activity detail")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, action, actor_id, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.ActorID, string(detailJSON), e.CreatedAt.UTC())
	return eris.Wrap(err, "sqlite: insert activity")
}

func (s *SQLiteStore) ListActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, actor_id, detail, created_at FROM activity_log
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activity")
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		var detailJSON string
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &detailJSON, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		if err := json.Unmarshal([]byte(detailJSON), &e.Detail); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal activity detail")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list activity iterate")
}

// attachFollowUps loads every follow-up in one query and distributes them to
// their owning leads, preserving due-date order.
func (s *SQLiteStore) attachFollowUps(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, due_at, notes, status, created_at, updated_at
		 FROM follow_ups ORDER BY due_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: load follow-ups")
	}
	defer rows.Close()

	fus, err := collectFollowUps(rows)
	if err != nil {
		return err
	}

	byLead := make(map[string][]model.FollowUp, len(leads))
	for _, fu := range fus {
		byLead[fu.LeadID] = append(byLead[fu.LeadID], fu)
	}
	for i := range leads {
		leads[i].FollowUps = byLead[leads[i].ID]
	}
	return nil
}

func (s *SQLiteStore) leadFollowUps(ctx context.Context, leadID string) ([]model.FollowUp, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, due_at, notes, status, created_at, updated_at
		 FROM follow_ups WHERE lead_id = ? ORDER BY due_at`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: follow-ups for lead %s", leadID)
	}
	defer rows.Close()

	return collectFollowUps(rows)
}

func collectFollowUps(rows *sql.Rows) ([]model.FollowUp, error) {
	var fus []model.FollowUp
	for rows.Next() {
		var fu model.FollowUp
		var status string
		if err := rows.Scan(&fu.ID, &fu.LeadID, &fu.DueAt, &fu.Notes, &status, &fu.CreatedAt, &fu.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan follow-up")
		}
		fu.Status = model.FollowUpStatus(status)
		fus = append(fus, fu)
	}
	return fus, eris.Wrap(rows.Err(), "sqlite: follow-ups iterate")
}

// scanner abstracts *sql.Row and *sql.Rows for shared lead scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanLead(row scanner) (*model.Lead, error) {
	var l model.Lead
	var status, historyJSON string

	err := row.Scan(&l.ID, &l.FullName, &l.NormalizedPhone, &l.Email, &l.PropertyType,
		&l.Budget, &l.Location, &l.Source, &l.Notes, &status, &l.AssignedAgentID,
		&l.AssignedAgentEmail, &historyJSON, &l.ImportedBy, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "sqlite: lead")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}

	l.Status = model.LeadStatus(status)
	if err := json.Unmarshal([]byte(historyJSON), &l.History); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal history")
	}
	return &l, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}
