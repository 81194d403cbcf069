package model

import "time"

// FollowUpStatus is the state of a scheduled follow-up reminder.
type FollowUpStatus string

// Follow-up states. Scheduled is the default on creation.
const (
	FollowUpScheduled  FollowUpStatus = "scheduled"
	FollowUpInProgress FollowUpStatus = "inprogress"
	FollowUpCompleted  FollowUpStatus = "completed"
	FollowUpCancelled  FollowUpStatus = "cancelled"
)

// ValidFollowUpStatus reports whether s is a known follow-up state.
func ValidFollowUpStatus(s FollowUpStatus) bool {
	switch s {
	case FollowUpScheduled, FollowUpInProgress, FollowUpCompleted, FollowUpCancelled:
		return true
	}
	return false
}

// FollowUp is a reminder owned by exactly one lead. It has no independent
// lifecycle: created by appending to its lead, mutated only by status
// transitions, never deleted by this core.
type FollowUp struct {
	ID        string         `json:"id" db:"id"`
	LeadID    string         `json:"lead_id" db:"lead_id"`
	DueAt     time.Time      `json:"due_at" db:"due_at"`
	Notes     string         `json:"notes,omitempty" db:"notes"`
	Status    FollowUpStatus `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
