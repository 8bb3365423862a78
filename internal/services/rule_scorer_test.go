package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestRuleScorer(t *testing.T) {
	scorer := NewRuleScorer()

	t.Run("strong lead hits the cap", func(t *testing.T) {
		lead := &models.LeadProfile{
			ID:          "lead-1",
			Company:     "AcmeCloud",
			ContactName: strPtr("Dana Ortiz"),
			Email:       strPtr("dana@acmecloud.example"),
			Industry:    "technology",
			Budget:      500_000,
			CompanySize: 1200,
		}

		result := scorer.Score(lead)
		assert.Equal(t, 10.0, result.Score)
		assert.Equal(t, "rule-based", result.Tier)
		assert.Contains(t, result.Reasoning, "budget >= $500K")
	})

	t.Run("mid-market lead lands in review band", func(t *testing.T) {
		lead := &models.LeadProfile{
			ID:          "lead-2",
			Company:     "Brightline Health",
			Industry:    "healthcare",
			Budget:      80_000,
			CompanySize: 300,
		}

		// budget +1, industry +2, size +1, funded-in-target +1
		result := scorer.Score(lead)
		assert.Equal(t, 5.0, result.Score)
	})

	t.Run("weak lead scores zero", func(t *testing.T) {
		lead := &models.LeadProfile{
			ID:          "lead-3",
			Company:     "Corner Bakery",
			Industry:    "food service",
			Budget:      5_000,
			CompanySize: 12,
		}

		result := scorer.Score(lead)
		assert.Equal(t, 0.0, result.Score)
		assert.Contains(t, result.Reasoning, "industry outside target list")
	})

	t.Run("same lead scores identically", func(t *testing.T) {
		lead := &models.LeadProfile{
			ID:          "lead-4",
			Company:     "Finely",
			Industry:    "finance",
			Budget:      120_000,
			CompanySize: 80,
		}

		first := scorer.Score(lead)
		second := scorer.Score(lead)
		assert.Equal(t, first.Score, second.Score)
		assert.Equal(t, first.Reasoning, second.Reasoning)
	})

	t.Run("custom target industries", func(t *testing.T) {
		custom := NewRuleScorer("Logistics")
		lead := &models.LeadProfile{
			ID:          "lead-5",
			Company:     "Shipwell",
			Industry:    "logistics",
			Budget:      30_000,
			CompanySize: 50,
		}

		// budget +1, industry +2, funded-in-target +1
		result := custom.Score(lead)
		assert.Equal(t, 4.0, result.Score)
	})
}

func TestValidateLead(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		lead := &models.LeadProfile{ID: "l", Company: "X", Industry: "technology", Budget: 0}
		assert.NoError(t, ValidateLead(lead))
	})

	t.Run("missing company and industry", func(t *testing.T) {
		err := ValidateLead(&models.LeadProfile{ID: "l"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "company")
		assert.Contains(t, err.Error(), "industry")
	})

	t.Run("negative budget", func(t *testing.T) {
		err := ValidateLead(&models.LeadProfile{ID: "l", Company: "X", Industry: "tech", Budget: -1})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
