package services

import (
	"fmt"
	"strings"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// defaultTargetIndustries are the industries the sales team is set up to serve.
var defaultTargetIndustries = []string{"technology", "saas", "software", "finance", "healthcare"}

// RuleScorer produces a deterministic qualification score from locally
// available lead attributes. It is the last tier of the scoring chain and
// never fails. The criteria mirror the remote model's rubric: budget 0-3,
// industry fit 0-2, company size 0-2, contact completeness 0-2, potential 0-1.
type RuleScorer struct {
	targetIndustries []string
}

// NewRuleScorer creates a RuleScorer. With no industries given it uses the
// default target list.
func NewRuleScorer(targetIndustries ...string) *RuleScorer {
	if len(targetIndustries) == 0 {
		targetIndustries = defaultTargetIndustries
	}
	lowered := make([]string, len(targetIndustries))
	for i, ind := range targetIndustries {
		lowered[i] = strings.ToLower(strings.TrimSpace(ind))
	}
	return &RuleScorer{targetIndustries: lowered}
}

// Score scores a lead from its attributes alone.
func (r *RuleScorer) Score(lead *models.LeadProfile) *ScoreResult {
	var score float64
	var parts []string

	switch {
	case lead.Budget >= 500_000:
		score += 3
		parts = append(parts, "budget >= $500K (+3)")
	case lead.Budget >= 100_000:
		score += 2
		parts = append(parts, "budget >= $100K (+2)")
	case lead.Budget >= 25_000:
		score += 1
		parts = append(parts, "budget >= $25K (+1)")
	default:
		parts = append(parts, "budget below $25K (+0)")
	}

	if r.industryFit(lead.Industry) {
		score += 2
		parts = append(parts, "target industry (+2)")
	} else {
		parts = append(parts, "industry outside target list (+0)")
	}

	switch {
	case lead.CompanySize >= 1000:
		score += 2
		parts = append(parts, "company size >= 1000 (+2)")
	case lead.CompanySize >= 100:
		score += 1
		parts = append(parts, "company size >= 100 (+1)")
	default:
		parts = append(parts, "small company (+0)")
	}

	contact := 0
	if lead.ContactName != nil && *lead.ContactName != "" {
		contact++
	}
	if lead.Email != nil && *lead.Email != "" {
		contact++
	}
	score += float64(contact)
	parts = append(parts, fmt.Sprintf("contact completeness (+%d)", contact))

	if lead.Budget > 0 && r.industryFit(lead.Industry) {
		score += 1
		parts = append(parts, "funded lead in target industry (+1)")
	}

	if score > 10 {
		score = 10
	}

	return &ScoreResult{
		Score:     score,
		Reasoning: "Rule-based score: " + strings.Join(parts, ", "),
		Tier:      "rule-based",
	}
}

func (r *RuleScorer) industryFit(industry string) bool {
	industry = strings.ToLower(strings.TrimSpace(industry))
	for _, target := range r.targetIndustries {
		if industry == target {
			return true
		}
	}
	return false
}
