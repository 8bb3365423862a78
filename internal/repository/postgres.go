package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of the Repository interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables the store needs if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			company TEXT NOT NULL,
			contact_name TEXT,
			email TEXT,
			industry TEXT NOT NULL,
			budget DOUBLE PRECISION NOT NULL,
			company_size INT NOT NULL,
			notes TEXT,
			status TEXT NOT NULL,
			score DOUBLE PRECISION,
			reasoning TEXT,
			assigned_rep_id TEXT,
			thread_id TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sales_reps (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			expertise TEXT[] NOT NULL,
			current_load INT NOT NULL,
			max_capacity INT NOT NULL,
			performance_score DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS workflow_checkpoints (
			thread_id TEXT PRIMARY KEY,
			lead_id TEXT NOT NULL,
			current_node TEXT NOT NULL,
			status TEXT NOT NULL,
			state JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveCheckpoint writes the latest snapshot for the state's thread. The upsert
// is a single statement, so a concurrent load sees either the old or the new
// record, never a partial one.
func (s *PostgresStore) SaveCheckpoint(ctx context.Context, state *models.WorkflowState) error {
	now := time.Now().UTC()
	state.UpdatedAt = now
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow state: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO workflow_checkpoints (thread_id, lead_id, current_node, status, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (thread_id) DO UPDATE SET
			current_node = EXCLUDED.current_node,
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`,
		state.ThreadID, state.LeadID, state.CurrentNode, state.Status, payload, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: save checkpoint %s: %v", ErrStoreUnavailable, state.ThreadID, err)
	}
	return nil
}

// LoadCheckpoint returns the latest snapshot for a thread.
func (s *PostgresStore) LoadCheckpoint(ctx context.Context, threadID string) (*models.WorkflowState, error) {
	var payload []byte
	err := s.db.QueryRow(ctx,
		"SELECT state FROM workflow_checkpoints WHERE thread_id = $1", threadID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: checkpoint %s", ErrNotFound, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load checkpoint %s: %v", ErrStoreUnavailable, threadID, err)
	}

	var state models.WorkflowState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", threadID, err)
	}
	return &state, nil
}

// ResetCheckpoints removes every checkpoint.
func (s *PostgresStore) ResetCheckpoints(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "TRUNCATE workflow_checkpoints")
	if err != nil {
		return fmt.Errorf("%w: reset checkpoints: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// CreateLead stores a new lead.
func (s *PostgresStore) CreateLead(ctx context.Context, lead *models.LeadProfile) error {
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO leads (id, company, contact_name, email, industry, budget, company_size, notes,
			status, score, reasoning, assigned_rep_id, thread_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		lead.ID, lead.Company, lead.ContactName, lead.Email, lead.Industry, lead.Budget,
		lead.CompanySize, lead.Notes, lead.Status, lead.Score, lead.Reasoning,
		lead.AssignedRepID, lead.ThreadID, lead.CreatedAt, lead.UpdatedAt)
	return err
}

// GetLead retrieves a lead by its ID.
func (s *PostgresStore) GetLead(ctx context.Context, id string) (*models.LeadProfile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, company, contact_name, email, industry, budget, company_size, notes,
			status, score, reasoning, assigned_rep_id, thread_id, created_at, updated_at
		FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: lead %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// ListLeads returns all leads, newest first.
func (s *PostgresStore) ListLeads(ctx context.Context) ([]*models.LeadProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, company, contact_name, email, industry, budget, company_size, notes,
			status, score, reasoning, assigned_rep_id, thread_id, created_at, updated_at
		FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.LeadProfile
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdateLeadOutcome projects a run's result onto the lead record.
func (s *PostgresStore) UpdateLeadOutcome(ctx context.Context, lead *models.LeadProfile) error {
	lead.UpdatedAt = time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE leads SET status = $1, score = $2, reasoning = $3, assigned_rep_id = $4,
			thread_id = $5, updated_at = $6
		WHERE id = $7`,
		lead.Status, lead.Score, lead.Reasoning, lead.AssignedRepID, lead.ThreadID,
		lead.UpdatedAt, lead.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: lead %s", ErrNotFound, lead.ID)
	}
	return nil
}

// CreateRep stores a new sales rep.
func (s *PostgresStore) CreateRep(ctx context.Context, rep *models.SalesRep) error {
	now := time.Now().UTC()
	rep.CreatedAt = now
	rep.UpdatedAt = now

	_, err := s.db.Exec(ctx, `
		INSERT INTO sales_reps (id, name, expertise, current_load, max_capacity, performance_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rep.ID, rep.Name, rep.Expertise, rep.CurrentLoad, rep.MaxCapacity,
		rep.PerformanceScore, rep.CreatedAt, rep.UpdatedAt)
	return err
}

// ListReps returns the current candidate pool ordered by ID for determinism.
func (s *PostgresStore) ListReps(ctx context.Context) ([]*models.SalesRep, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, expertise, current_load, max_capacity, performance_score, created_at, updated_at
		FROM sales_reps ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reps []*models.SalesRep
	for rows.Next() {
		var rep models.SalesRep
		err := rows.Scan(&rep.ID, &rep.Name, &rep.Expertise, &rep.CurrentLoad,
			&rep.MaxCapacity, &rep.PerformanceScore, &rep.CreatedAt, &rep.UpdatedAt)
		if err != nil {
			return nil, err
		}
		reps = append(reps, &rep)
	}
	return reps, rows.Err()
}

// IncrementRepLoad adjusts a rep's current load by delta.
func (s *PostgresStore) IncrementRepLoad(ctx context.Context, repID string, delta int) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE sales_reps SET current_load = current_load + $1, updated_at = $2 WHERE id = $3",
		delta, time.Now().UTC(), repID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: rep %s", ErrNotFound, repID)
	}
	return nil
}

func scanLead(row pgx.Row) (*models.LeadProfile, error) {
	var lead models.LeadProfile
	err := row.Scan(&lead.ID, &lead.Company, &lead.ContactName, &lead.Email, &lead.Industry,
		&lead.Budget, &lead.CompanySize, &lead.Notes, &lead.Status, &lead.Score,
		&lead.Reasoning, &lead.AssignedRepID, &lead.ThreadID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}
