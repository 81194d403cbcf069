package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/propline/leads-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. Satisfied by
// *pgxpool.Pool and by pgxmock.PgxPoolIface in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries prepared on each new connection for the
// hot-path store operations.
var preparedStatements = map[string]string{
	"get_lead":          `SELECT ` + pgLeadColumns + ` FROM leads WHERE id = $1`,
	"get_lead_by_phone": `SELECT ` + pgLeadColumns + ` FROM leads WHERE normalized_phone = $1`,
	"get_agent":         `SELECT id, auth_id, name, email, blocked, created_at, updated_at FROM agents WHERE id = $1`,
	"lead_follow_ups":   `SELECT id, lead_id, due_at, notes, status, created_at, updated_at FROM follow_ups WHERE lead_id = $1 ORDER BY due_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	history              JSONB NOT NULL DEFAULT '[]',
	imported_by          TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_normalized_phone ON leads(normalized_phone);
CREATE INDEX IF NOT EXISTS idx_leads_assigned_agent ON leads(assigned_agent_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);

CREATE TABLE IF NOT EXISTS follow_ups (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	due_at     TIMESTAMPTZ NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'scheduled',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_follow_ups_lead_id ON follow_ups(lead_id);
CREATE INDEX IF NOT EXISTS idx_follow_ups_due_at ON follow_ups(due_at);

CREATE TABLE IF NOT EXISTS agents (
	id         TEXT PRIMARY KEY,
	auth_id    TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	blocked    BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS activity_log (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	actor_id   TEXT NOT NULL DEFAULT '',
	detail     JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const pgLeadColumns = `id, full_name, normalized_phone, email, property_type, budget,
	location, source, notes, status, assigned_agent_id, assigned_agent_email,
	history, imported_by, created_at, updated_at`

func (s *PostgresStore) ListLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgLeadColumns+` FROM leads ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanPgLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list leads iterate")
	}

	if err := s.attachFollowUps(ctx, leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgLeadColumns+` FROM leads WHERE id = $1`, id)

	l, err := scanPgLead(row)
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

func (s *PostgresStore) GetLeadByPhone(ctx context.Context, normalizedPhone string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgLeadColumns+` FROM leads WHERE normalized_phone = $1`, normalizedPhone)

	l, err := scanPgLead(row)
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

func (s *PostgresStore) WriteLeadsAtomic(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin write leads")
	}
	defer tx.Rollback(ctx)

	for i := range leads {
		historyJSON, err := json.Marshal(leads[i].History)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal history")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO leads (`+pgLeadColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 ON CONFLICT (id) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				normalized_phone = EXCLUDED.normalized_phone,
				email = EXCLUDED.email,
				property_type = EXCLUDED.property_type,
				budget = EXCLUDED.budget,
				location = EXCLUDED.location,
				source = EXCLUDED.source,
				notes = EXCLUDED.notes,
				status = EXCLUDED.status,
				assigned_agent_id = EXCLUDED.assigned_agent_id,
				assigned_agent_email = EXCLUDED.assigned_agent_email,
				history = EXCLUDED.history,
				imported_by = EXCLUDED.imported_by,
				updated_at = EXCLUDED.updated_at`,
			leads[i].ID, leads[i].FullName, leads[i].NormalizedPhone, leads[i].Email,
			leads[i].PropertyType, leads[i].Budget, leads[i].Location, leads[i].Source,
			leads[i].Notes, string(leads[i].Status), leads[i].AssignedAgentID,
			leads[i].AssignedAgentEmail, historyJSON, leads[i].ImportedBy,
			leads[i].CreatedAt.UTC(), leads[i].UpdatedAt.UTC(),
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return eris.Wrapf(ErrDuplicate, "postgres: write lead %s", leads[i].NormalizedPhone)
			}
			return eris.Wrapf(err, "postgres: write lead %s", leads[i].ID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit write leads")
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, id string, status model.LeadStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
	}
	return nil
}

func (s *PostgresStore) AddFollowUp(ctx context.Context, fu model.FollowUp) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO follow_ups (id, lead_id, due_at, notes, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		fu.ID, fu.LeadID, fu.DueAt.UTC(), fu.Notes, string(fu.Status),
		fu.CreatedAt.UTC(), fu.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key
			return eris.Wrapf(ErrNotFound, "postgres: lead %s", fu.LeadID)
		}
		return eris.Wrapf(err, "postgres: insert follow-up for lead %s", fu.LeadID)
	}
	return nil
}

func (s *PostgresStore) UpdateFollowUpStatus(ctx context.Context, leadID, followUpID string, status model.FollowUpStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE follow_ups SET status = $1, updated_at = $2 WHERE id = $3 AND lead_id = $4`,
		string(status), time.Now().UTC(), followUpID, leadID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update follow-up %s", followUpID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: follow-up %s", followUpID)
	}
	return nil
}

func (s *PostgresStore) ListFollowUpsByAgent(ctx context.Context, agentID string) ([]model.FollowUp, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT f.id, f.lead_id, f.due_at, f.notes, f.status, f.created_at, f.updated_at
		 FROM follow_ups f
		 JOIN leads l ON l.id = f.lead_id
		 WHERE l.assigned_agent_id = $1
		 ORDER BY f.due_at`, agentID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list follow-ups for agent %s", agentID)
	}
	defer rows.Close()

	return collectPgFollowUps(rows)
}

func (s *PostgresStore) CreateAgent(ctx context.Context, a *model.Agent) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO agents (id, auth_id, name, email, blocked, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.AuthID, a.Name, a.Email, a.Blocked, a.CreatedAt, a.UpdatedAt)
	return eris.Wrapf(err, "postgres: insert agent %s", a.Email)
}

func (s *PostgresStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, auth_id, name, email, blocked, created_at, updated_at FROM agents WHERE id = $1`, id)

	var a model.Agent
	err := row.Scan(&a.ID, &a.AuthID, &a.Name, &a.Email, &a.Blocked, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "postgres: agent %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get agent %s", id)
	}
	return &a, nil
}

func (s *PostgresStore) ListAgents(ctx context.Context) ([]model.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, auth_id, name, email, blocked, created_at, updated_at FROM agents ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list agents")
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.AuthID, &a.Name, &a.Email, &a.Blocked, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan agent")
		}
		agents = append(agents, a)
	}
	return agents, eris.Wrap(rows.Err(), "postgres: list agents iterate")
}

func (s *PostgresStore) SetAgentBlocked(ctx context.Context, id string, blocked bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET blocked = $1, updated_at = $2 WHERE id = $3`,
		blocked, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set agent blocked %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: agent %s", id)
	}
	return nil
}

func (s *PostgresStore) LogActivity(ctx context.Context, e model.ActivityEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	detailJSON, err := json.Marshal(e.Detail)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal activity detail")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO activity_log (id, action, actor_id, detail, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Action, e.ActorID, detailJSON, e.CreatedAt.UTC())
	return eris.Wrap(err, "postgres: insert activity")
}

func (s *PostgresStore) ListActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, action, actor_id, detail, created_at FROM activity_log
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activity")
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		var detailJSON []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &detailJSON, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal activity detail")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list activity iterate")
}

func (s *PostgresStore) attachFollowUps(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, due_at, notes, status, created_at, updated_at
		 FROM follow_ups ORDER BY due_at`)
	if err != nil {
		return eris.Wrap(err, "postgres: load follow-ups")
	}
	defer rows.Close()

	fus, err := collectPgFollowUps(rows)
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

func (s *PostgresStore) leadFollowUps(ctx context.Context, leadID string) ([]model.FollowUp, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, due_at, notes, status, created_at, updated_at
		 FROM follow_ups WHERE lead_id = $1 ORDER BY due_at`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: follow-ups for lead %s", leadID)
	}
	defer rows.Close()

	return collectPgFollowUps(rows)
}

func collectPgFollowUps(rows pgx.Rows) ([]model.FollowUp, error) {
	var fus []model.FollowUp
	for rows.Next() {
		var fu model.FollowUp
		var status string
		if err := rows.Scan(&fu.ID, &fu.LeadID, &fu.DueAt, &fu.Notes, &status, &fu.CreatedAt, &fu.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan follow-up")
		}
		fu.Status = model.FollowUpStatus(status)
		fus = append(fus, fu)
	}
	return fus, eris.Wrap(rows.Err(), "postgres: follow-ups iterate")
}

func scanPgLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var status string
	var historyJSON []byte

	err := row.Scan(&l.ID, &l.FullName, &l.NormalizedPhone, &l.Email, &l.PropertyType,
		&l.Budget, &l.Location, &l.Source, &l.Notes, &status, &l.AssignedAgentID,
		&l.AssignedAgentEmail, &historyJSON, &l.ImportedBy, &l.CreatedAt, &l.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "postgres: lead")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan lead")
	}

	l.Status = model.LeadStatus(status)
	if err := json.Unmarshal(historyJSON, &l.History); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal history")
	}
	return &l, nil
}
