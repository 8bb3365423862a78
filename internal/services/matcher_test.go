package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

func TestMatchRep(t *testing.T) {
	lead := &models.LeadProfile{
		ID:       "lead-1",
		Company:  "AcmeCloud",
		Industry: "technology",
		Budget:   500_000,
	}

	t.Run("empty pool", func(t *testing.T) {
		_, err := MatchRep(lead, nil, 1.0)
		assert.ErrorIs(t, err, ErrNoRepsAvailable)
	})

	t.Run("expertise beats performance", func(t *testing.T) {
		reps := []*models.SalesRep{
			{ID: "rep-a", Name: "A", Expertise: []string{"finance"}, CurrentLoad: 2, MaxCapacity: 8, PerformanceScore: 5.0},
			{ID: "rep-b", Name: "B", Expertise: []string{"technology"}, CurrentLoad: 2, MaxCapacity: 8, PerformanceScore: 3.0},
		}

		result, err := MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		// a: 0 + 2.5 + 3 = 5.5; b: 3 + 1.5 + 3 = 7.5
		assert.Equal(t, "rep-b", result.RepID)
		assert.Equal(t, models.ConfidenceHigh, result.Confidence)
	})

	t.Run("close scores are medium confidence", func(t *testing.T) {
		reps := []*models.SalesRep{
			{ID: "rep-a", Name: "A", Expertise: []string{"technology"}, CurrentLoad: 2, MaxCapacity: 8, PerformanceScore: 4.0},
			{ID: "rep-b", Name: "B", Expertise: []string{"technology"}, CurrentLoad: 2, MaxCapacity: 8, PerformanceScore: 3.0},
		}

		result, err := MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		// a: 3 + 2.0 + 3 = 8.0; b: 3 + 1.5 + 3 = 7.5; gap 0.5 <= margin
		assert.Equal(t, "rep-a", result.RepID)
		assert.Equal(t, models.ConfidenceMedium, result.Confidence)
	})

	t.Run("tie breaks by load then ID", func(t *testing.T) {
		reps := []*models.SalesRep{
			{ID: "rep-b", Name: "B", Expertise: []string{"technology"}, CurrentLoad: 4, MaxCapacity: 8, PerformanceScore: 4.0},
			{ID: "rep-a", Name: "A", Expertise: []string{"technology"}, CurrentLoad: 4, MaxCapacity: 8, PerformanceScore: 4.0},
		}

		result, err := MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		assert.Equal(t, "rep-a", result.RepID)

		reps[1].CurrentLoad = 3
		reps[1].MaxCapacity = 7 // same spare capacity, lower load
		result, err = MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		assert.Equal(t, "rep-a", result.RepID)
	})

	t.Run("deterministic across input order", func(t *testing.T) {
		reps := []*models.SalesRep{
			{ID: "rep-a", Name: "A", Expertise: []string{"technology"}, CurrentLoad: 1, MaxCapacity: 8, PerformanceScore: 4.0},
			{ID: "rep-b", Name: "B", Expertise: []string{"saas"}, CurrentLoad: 2, MaxCapacity: 6, PerformanceScore: 4.5},
			{ID: "rep-c", Name: "C", Expertise: []string{"technology"}, CurrentLoad: 5, MaxCapacity: 6, PerformanceScore: 3.5},
		}
		reversed := []*models.SalesRep{reps[2], reps[1], reps[0]}

		first, err := MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		second, err := MatchRep(lead, reversed, 1.0)
		assert.NoError(t, err)
		assert.Equal(t, first.RepID, second.RepID)
		assert.Equal(t, first.Confidence, second.Confidence)
	})

	t.Run("spare capacity contribution is capped", func(t *testing.T) {
		reps := []*models.SalesRep{
			{ID: "rep-a", Name: "A", Expertise: []string{"technology"}, CurrentLoad: 0, MaxCapacity: 100, PerformanceScore: 3.0},
			{ID: "rep-b", Name: "B", Expertise: []string{"technology"}, CurrentLoad: 0, MaxCapacity: 4, PerformanceScore: 3.5},
		}

		result, err := MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		// Both get the +3 cap; b wins on performance.
		assert.Equal(t, "rep-b", result.RepID)
	})

	t.Run("all at capacity falls back to least loaded", func(t *testing.T) {
		reps := []*models.SalesRep{
			{ID: "rep-a", Name: "A", Expertise: []string{"technology"}, CurrentLoad: 8, MaxCapacity: 8, PerformanceScore: 4.0},
			{ID: "rep-b", Name: "B", Expertise: []string{"finance"}, CurrentLoad: 6, MaxCapacity: 6, PerformanceScore: 3.0},
		}

		result, err := MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		assert.Equal(t, "rep-b", result.RepID)
		assert.Equal(t, models.ConfidenceLow, result.Confidence)
	})

	t.Run("single available rep is high confidence", func(t *testing.T) {
		reps := []*models.SalesRep{
			{ID: "rep-a", Name: "A", Expertise: []string{"retail"}, CurrentLoad: 1, MaxCapacity: 4, PerformanceScore: 2.0},
		}

		result, err := MatchRep(lead, reps, 1.0)
		assert.NoError(t, err)
		assert.Equal(t, "rep-a", result.RepID)
		assert.Equal(t, models.ConfidenceHigh, result.Confidence)
	})

	t.Run("expertise match is case insensitive", func(t *testing.T) {
		upper := &models.LeadProfile{ID: "lead-2", Company: "X", Industry: "Technology", Budget: 1}
		reps := []*models.SalesRep{
			{ID: "rep-a", Name: "A", Expertise: []string{"TECHNOLOGY"}, CurrentLoad: 0, MaxCapacity: 2, PerformanceScore: 1.0},
			{ID: "rep-b", Name: "B", Expertise: []string{"finance"}, CurrentLoad: 0, MaxCapacity: 2, PerformanceScore: 1.0},
		}

		result, err := MatchRep(upper, reps, 1.0)
		assert.NoError(t, err)
		assert.Equal(t, "rep-a", result.RepID)
	})
}
