package model

import "time"

// Agent is a sales agent that leads can be assigned to. AuthID is the stable
// authentication identifier from the external identity provider; Email doubles
// as the human-readable assignment label.
type Agent struct {
	ID        string    `json:"id" db:"id"`
	AuthID    string    `json:"auth_id" db:"auth_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Blocked   bool      `json:"blocked" db:"blocked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ActivityEntry is one audit record: batch operations write exactly one entry
// describing counts, not one per lead.
type ActivityEntry struct {
	ID        string         `json:"id" db:"id"`
	Action    string         `json:"action" db:"action"`
	ActorID   string         `json:"actor_id" db:"actor_id"`
	Detail    map[string]any `json:"detail,omitempty" db:"detail"` // JSON column
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Activity actions recorded by the core.
const (
	ActionImport     = "import_batch"
	ActionBulkAssign = "bulk_assign"
)
