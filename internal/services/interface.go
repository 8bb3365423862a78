package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// ErrInvalidInput is returned for leads that cannot be scored at all. It is
// non-transient: the caller must not retry.
var ErrInvalidInput = errors.New("invalid lead input")

// ErrScoringUnavailable signals that every remote scoring tier was exhausted.
// The rule-based fallback always produces a score, so this never escapes the
// scoring layer; it exists for logging and metrics.
var ErrScoringUnavailable = errors.New("scoring unavailable")

// ErrNoRepsAvailable is returned by the matcher when the candidate pool is empty.
var ErrNoRepsAvailable = errors.New("no sales reps available")

// ScoreResult is the outcome of scoring a lead.
type ScoreResult struct {
	// Score is the qualification score in [0, 10].
	Score float64 `json:"score"`
	// Reasoning explains the score, including caveats for any tier fallback.
	Reasoning string `json:"reasoning"`
	// Tier names the strategy that produced the score.
	Tier string `json:"tier"`
	// Attempts counts the remote scoring calls made, across tiers.
	Attempts int `json:"attempts"`
}

// Scorer scores a lead profile.
type Scorer interface {
	// Score returns a qualification score and reasoning for the lead.
	Score(ctx context.Context, lead *models.LeadProfile) (*ScoreResult, error)
}

// ValidateLead checks that a lead carries the fields scoring depends on.
// A failure here is ErrInvalidInput and fails the workflow run.
func ValidateLead(lead *models.LeadProfile) error {
	var missing []string
	if strings.TrimSpace(lead.Company) == "" {
		missing = append(missing, "company")
	}
	if strings.TrimSpace(lead.Industry) == "" {
		missing = append(missing, "industry")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if lead.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidInput)
	}
	return nil
}
