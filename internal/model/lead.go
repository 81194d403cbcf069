// Package model defines the core lead, agent, and follow-up types shared
// across the ingestion and scheduling packages.
package model

import (
	"strings"
	"time"
)

// LeadStatus is the workflow state of a lead.
type LeadStatus string

// Lead workflow states.
const (
	StatusNew       LeadStatus = "New"
	StatusContacted LeadStatus = "Contacted"
	StatusVisited   LeadStatus = "Visited"
	StatusQualified LeadStatus = "Qualified"
	StatusClosed    LeadStatus = "Closed"
	StatusLost      LeadStatus = "Lost"
)

// LeadStatuses lists every valid lead status in workflow order.
var LeadStatuses = []LeadStatus{
	StatusNew, StatusContacted, StatusVisited, StatusQualified, StatusClosed, StatusLost,
}

// ValidLeadStatus reports whether s is one of the six workflow states.
func ValidLeadStatus(s LeadStatus) bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Lead is a prospective buyer record. NormalizedPhone is the dedup key and is
// unique across the whole population.
type Lead struct {
	ID              string     `json:"id" db:"id"`
	FullName        string     `json:"full_name" db:"full_name"`
	NormalizedPhone string     `json:"normalized_phone" db:"normalized_phone"`
	Email           string     `json:"email,omitempty" db:"email"`
	PropertyType    string     `json:"property_type,omitempty" db:"property_type"`
	Budget          string     `json:"budget,omitempty" db:"budget"`
	Location        string     `json:"location,omitempty" db:"location"`
	Source          string     `json:"source,omitempty" db:"source"`
	Notes           string     `json:"notes,omitempty" db:"notes"`
	Status          LeadStatus `json:"status" db:"status"`

	AssignedAgentID    string             `json:"assigned_agent_id,omitempty" db:"assigned_agent_id"`
	AssignedAgentEmail string             `json:"assigned_agent_email,omitempty" db:"assigned_agent_email"`
	History            []AssignmentRecord `json:"history,omitempty" db:"history"` // JSON column

	FollowUps []FollowUp `json:"follow_ups,omitempty"`

	ImportedBy string    `json:"imported_by,omitempty" db:"imported_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// AssignmentRecord captures one prior assignment before it was overwritten.
// Records are append-only and ordered oldest first.
type AssignmentRecord struct {
	PreviousAgentID    string    `json:"previous_agent_id,omitempty"`
	PreviousAgentEmail string    `json:"previous_agent_email,omitempty"`
	ReassignedBy       string    `json:"reassigned_by"`
	ReassignedAt       time.Time `json:"reassigned_at"`
}

// LastTouched returns the most recent of the lead's timestamps, used for
// "last updated" tracking on the dashboard.
func (l *Lead) LastTouched() time.Time {
	if l.UpdatedAt.After(l.CreatedAt) {
		return l.UpdatedAt
	}
	return l.CreatedAt
}

// RawLead is one incoming tabular record: a flat field-name to value mapping.
type RawLead map[string]string

// Field returns the trimmed value for a field name, or "" when absent.
func (r RawLead) Field(name string) string {
	return strings.TrimSpace(r[name])
}

// Raw record field names accepted by the import pipeline.
const (
	FieldFullName     = "fullName"
	FieldMobileNo     = "mobileNo"
	FieldEmail        = "email"
	FieldPropertyType = "propertyType"
	FieldBudget       = "budget"
	FieldLocation     = "location"
	FieldSource       = "source"
	FieldNotes        = "notes"
)
