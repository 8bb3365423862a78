// Package models defines the domain models for the lead qualification service
package models

import (
	"time"
)

// LeadStatus represents the qualification lifecycle status of a lead
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusInProgress  LeadStatus = "in_progress"
	LeadStatusNeedsReview LeadStatus = "needs_review"
	LeadStatusAssigned    LeadStatus = "assigned"
	LeadStatusRejected    LeadStatus = "rejected"
	LeadStatusFailed      LeadStatus = "failed"
)

// Confidence labels the strength of a rep match
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// LeadProfile represents an inbound sales lead. The profile is immutable for
// the duration of a workflow run; only the projection fields (Status,
// AssignedRepID, Score, Reasoning, ThreadID) are updated, and only at finalize.
type LeadProfile struct {
	ID          string  `json:"id" db:"id"`
	Company     string  `json:"company" db:"company"`
	ContactName *string `json:"contact_name,omitempty" db:"contact_name"`
	Email       *string `json:"email,omitempty" db:"email"`
	Industry    string  `json:"industry" db:"industry"`
	Budget      float64 `json:"budget" db:"budget"`
	CompanySize int     `json:"company_size" db:"company_size"`
	Notes       *string `json:"notes,omitempty" db:"notes"`

	// Qualification outcome projection
	Status        LeadStatus `json:"status" db:"status"`
	Score         *float64   `json:"score,omitempty" db:"score"`
	Reasoning     *string    `json:"reasoning,omitempty" db:"reasoning"`
	AssignedRepID *string    `json:"assigned_rep_id,omitempty" db:"assigned_rep_id"`

	// ThreadID is set while a run is awaiting a human decision so the
	// review UI can resume it, and cleared once the run completes.
	ThreadID *string `json:"thread_id,omitempty" db:"thread_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SalesRep represents a member of the sales team that leads can be routed to.
// The engine only reads rep records; load bookkeeping happens in the store.
type SalesRep struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Expertise        []string  `json:"expertise" db:"expertise"`
	CurrentLoad      int       `json:"current_load" db:"current_load"`
	MaxCapacity      int       `json:"max_capacity" db:"max_capacity"`
	PerformanceScore float64   `json:"performance_score" db:"performance_score"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// SpareCapacity returns how many more leads the rep can take on.
func (r *SalesRep) SpareCapacity() int {
	return r.MaxCapacity - r.CurrentLoad
}

// MatchResult is the outcome of matching a lead against the rep pool.
type MatchResult struct {
	RepID      string     `json:"rep_id,omitempty"`
	Confidence Confidence `json:"confidence"`
	Rationale  string     `json:"rationale"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
