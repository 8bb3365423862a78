package repository

import (
	"context"
	"errors"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStoreUnavailable wraps failures of the backing medium. A checkpoint write
// that fails with it must not be treated as having advanced the run.
var ErrStoreUnavailable = errors.New("store unavailable")

// CheckpointStore persists workflow state snapshots keyed by thread ID.
// Saves are atomic per thread: a concurrent load never observes a partially
// written record. The store does not arbitrate concurrent writers to the same
// thread; each thread has exactly one logical runner at a time.
type CheckpointStore interface {
	// SaveCheckpoint writes the latest snapshot for the state's thread,
	// overwriting any previous one.
	SaveCheckpoint(ctx context.Context, state *models.WorkflowState) error
	// LoadCheckpoint returns the latest snapshot for a thread, or ErrNotFound.
	LoadCheckpoint(ctx context.Context, threadID string) (*models.WorkflowState, error)
	// ResetCheckpoints removes every checkpoint. Administrative use only.
	ResetCheckpoints(ctx context.Context) error
}

// LeadStore is the lead-record accessor and outcome sink.
type LeadStore interface {
	// CreateLead stores a new lead.
	CreateLead(ctx context.Context, lead *models.LeadProfile) error
	// GetLead retrieves a lead by its ID, or ErrNotFound.
	GetLead(ctx context.Context, id string) (*models.LeadProfile, error)
	// ListLeads returns all leads.
	ListLeads(ctx context.Context) ([]*models.LeadProfile, error)
	// UpdateLeadOutcome projects a finished (or interrupted) run onto the
	// lead record: status, score, reasoning, assigned rep and thread ID.
	UpdateLeadOutcome(ctx context.Context, lead *models.LeadProfile) error
}

// RepStore is the sales-rep pool accessor.
type RepStore interface {
	// CreateRep stores a new sales rep.
	CreateRep(ctx context.Context, rep *models.SalesRep) error
	// ListReps returns the current candidate pool.
	ListReps(ctx context.Context) ([]*models.SalesRep, error)
	// IncrementRepLoad adjusts a rep's current load by delta.
	IncrementRepLoad(ctx context.Context, repID string, delta int) error
}

// Repository aggregates the stores the engine and API depend on.
type Repository interface {
	CheckpointStore
	LeadStore
	RepStore
}
