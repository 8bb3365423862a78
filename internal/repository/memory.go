package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// MemoryStore is an in-memory implementation of the Repository interface.
// It is used in tests and for running the service without a database. All
// methods hand out deep copies, so callers never share records with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*models.WorkflowState
	leads       map[string]*models.LeadProfile
	reps        map[string]*models.SalesRep
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: make(map[string]*models.WorkflowState),
		leads:       make(map[string]*models.LeadProfile),
		reps:        make(map[string]*models.SalesRep),
	}
}

// SaveCheckpoint writes the latest snapshot for the state's thread.
func (s *MemoryStore) SaveCheckpoint(ctx context.Context, state *models.WorkflowState) error {
	now := time.Now().UTC()
	state.UpdatedAt = now
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[state.ThreadID] = state.Clone()
	return nil
}

// LoadCheckpoint returns the latest snapshot for a thread.
func (s *MemoryStore) LoadCheckpoint(ctx context.Context, threadID string) (*models.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.checkpoints[threadID]
	if !ok {
		return nil, fmt.Errorf("%w: checkpoint %s", ErrNotFound, threadID)
	}
	return state.Clone(), nil
}

// ResetCheckpoints removes every checkpoint.
func (s *MemoryStore) ResetCheckpoints(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints = make(map[string]*models.WorkflowState)
	return nil
}

// CreateLead stores a new lead.
func (s *MemoryStore) CreateLead(ctx context.Context, lead *models.LeadProfile) error {
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leads[lead.ID]; exists {
		return fmt.Errorf("lead %s already exists", lead.ID)
	}
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

// GetLead retrieves a lead by its ID.
func (s *MemoryStore) GetLead(ctx context.Context, id string) (*models.LeadProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[id]
	if !ok {
		return nil, fmt.Errorf("%w: lead %s", ErrNotFound, id)
	}
	return cloneLead(lead), nil
}

// ListLeads returns all leads ordered by ID.
func (s *MemoryStore) ListLeads(ctx context.Context) ([]*models.LeadProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := make([]*models.LeadProfile, 0, len(s.leads))
	for _, lead := range s.leads {
		leads = append(leads, cloneLead(lead))
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].ID < leads[j].ID })
	return leads, nil
}

// UpdateLeadOutcome projects a run's result onto the lead record.
func (s *MemoryStore) UpdateLeadOutcome(ctx context.Context, lead *models.LeadProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.leads[lead.ID]
	if !ok {
		return fmt.Errorf("%w: lead %s", ErrNotFound, lead.ID)
	}
	existing.Status = lead.Status
	existing.Score = copyFloat(lead.Score)
	existing.Reasoning = copyString(lead.Reasoning)
	existing.AssignedRepID = copyString(lead.AssignedRepID)
	existing.ThreadID = copyString(lead.ThreadID)
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

// CreateRep stores a new sales rep.
func (s *MemoryStore) CreateRep(ctx context.Context, rep *models.SalesRep) error {
	now := time.Now().UTC()
	rep.CreatedAt = now
	rep.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reps[rep.ID]; exists {
		return fmt.Errorf("rep %s already exists", rep.ID)
	}
	s.reps[rep.ID] = cloneRep(rep)
	return nil
}

// ListReps returns the current candidate pool ordered by ID.
func (s *MemoryStore) ListReps(ctx context.Context) ([]*models.SalesRep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reps := make([]*models.SalesRep, 0, len(s.reps))
	for _, rep := range s.reps {
		reps = append(reps, cloneRep(rep))
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].ID < reps[j].ID })
	return reps, nil
}

// IncrementRepLoad adjusts a rep's current load by delta.
func (s *MemoryStore) IncrementRepLoad(ctx context.Context, repID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep, ok := s.reps[repID]
	if !ok {
		return fmt.Errorf("%w: rep %s", ErrNotFound, repID)
	}
	rep.CurrentLoad += delta
	rep.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneLead(lead *models.LeadProfile) *models.LeadProfile {
	c := *lead
	c.ContactName = copyString(lead.ContactName)
	c.Email = copyString(lead.Email)
	c.Notes = copyString(lead.Notes)
	c.Score = copyFloat(lead.Score)
	c.Reasoning = copyString(lead.Reasoning)
	c.AssignedRepID = copyString(lead.AssignedRepID)
	c.ThreadID = copyString(lead.ThreadID)
	return &c
}

func cloneRep(rep *models.SalesRep) *models.SalesRep {
	c := *rep
	c.Expertise = append([]string(nil), rep.Expertise...)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
