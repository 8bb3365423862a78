package services

import (
	"fmt"
	"strings"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// Rep match weights. Industry expertise dominates; spare capacity keeps the
// workload spread so the best performers are not saturated first.
const (
	expertiseWeight   = 3.0
	performanceWeight = 0.5
	capacityCap       = 3.0
)

// MatchRep maps a lead onto the best-fitting rep from the candidate pool.
//
// Candidates with spare capacity are scored as a weighted sum of industry
// expertise overlap, performance and spare capacity; ties break by lowest
// current load, then lowest ID, so the result is deterministic for a given
// pool. Confidence is high when the winner clears the runner-up by more than
// margin, medium otherwise. When nobody has spare capacity the least-loaded
// candidate is chosen and flagged low. An empty pool is ErrNoRepsAvailable.
func MatchRep(lead *models.LeadProfile, reps []*models.SalesRep, margin float64) (*models.MatchResult, error) {
	if len(reps) == 0 {
		return nil, ErrNoRepsAvailable
	}

	available := make([]*models.SalesRep, 0, len(reps))
	for _, rep := range reps {
		if rep.SpareCapacity() > 0 {
			available = append(available, rep)
		}
	}

	if len(available) == 0 {
		// Everyone is at capacity; fall back to the least-loaded rep.
		best := reps[0]
		for _, rep := range reps[1:] {
			if rep.CurrentLoad < best.CurrentLoad ||
				(rep.CurrentLoad == best.CurrentLoad && rep.ID < best.ID) {
				best = rep
			}
		}
		return &models.MatchResult{
			RepID:      best.ID,
			Confidence: models.ConfidenceLow,
			Rationale:  fmt.Sprintf("all reps at capacity; %s has the lightest load (%d/%d)", best.Name, best.CurrentLoad, best.MaxCapacity),
		}, nil
	}

	var best, runnerUp *models.SalesRep
	var bestScore, runnerUpScore float64
	for _, rep := range available {
		score := matchScore(lead, rep)
		switch {
		case best == nil || score > bestScore:
			runnerUp, runnerUpScore = best, bestScore
			best, bestScore = rep, score
		case score == bestScore && betterTieBreak(rep, best):
			runnerUp, runnerUpScore = best, bestScore
			best = rep
		case runnerUp == nil || score > runnerUpScore:
			runnerUp, runnerUpScore = rep, score
		}
	}

	confidence := models.ConfidenceMedium
	if runnerUp == nil || bestScore-runnerUpScore > margin {
		confidence = models.ConfidenceHigh
	}

	return &models.MatchResult{
		RepID:      best.ID,
		Confidence: confidence,
		Rationale: fmt.Sprintf("%s scored %.1f (expertise match: %v, load %d/%d, performance %.1f)",
			best.Name, bestScore, hasExpertise(lead, best), best.CurrentLoad, best.MaxCapacity, best.PerformanceScore),
	}, nil
}

func matchScore(lead *models.LeadProfile, rep *models.SalesRep) float64 {
	var score float64
	if hasExpertise(lead, rep) {
		score += expertiseWeight
	}
	score += rep.PerformanceScore * performanceWeight
	if spare := float64(rep.SpareCapacity()); spare > 0 {
		if spare > capacityCap {
			spare = capacityCap
		}
		score += spare
	}
	return score
}

func hasExpertise(lead *models.LeadProfile, rep *models.SalesRep) bool {
	industry := strings.ToLower(strings.TrimSpace(lead.Industry))
	for _, tag := range rep.Expertise {
		if strings.ToLower(strings.TrimSpace(tag)) == industry {
			return true
		}
	}
	return false
}

func betterTieBreak(a, b *models.SalesRep) bool {
	if a.CurrentLoad != b.CurrentLoad {
		return a.CurrentLoad < b.CurrentLoad
	}
	return a.ID < b.ID
}
