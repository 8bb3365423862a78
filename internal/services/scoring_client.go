package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// HTTPScoringClient is an HTTP implementation of the Scorer interface. It
// calls a scoring sidecar that wraps a language model; the model tier is named
// per client so primary and secondary tiers are two clients against the same
// contract.
type HTTPScoringClient struct {
	url    string
	model  string
	client *http.Client
}

// NewHTTPScoringClient creates a new HTTPScoringClient.
func NewHTTPScoringClient(url, model string, timeout time.Duration) *HTTPScoringClient {
	return &HTTPScoringClient{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	Model       string  `json:"model"`
	Company     string  `json:"company"`
	Industry    string  `json:"industry"`
	Budget      float64 `json:"budget"`
	CompanySize int     `json:"company_size"`
	ContactName string  `json:"contact_name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

type scoreResponse struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Score returns the qualification score for a given lead.
func (c *HTTPScoringClient) Score(ctx context.Context, lead *models.LeadProfile) (*ScoreResult, error) {
	body := scoreRequest{
		Model:       c.model,
		Company:     lead.Company,
		Industry:    lead.Industry,
		Budget:      lead.Budget,
		CompanySize: lead.CompanySize,
	}
	if lead.ContactName != nil {
		body.ContactName = *lead.ContactName
	}
	if lead.Email != nil {
		body.Email = *lead.Email
	}
	if lead.Notes != nil {
		body.Notes = *lead.Notes
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/score", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: scoring service rejected lead (status %d)", ErrInvalidInput, resp.StatusCode)
	default:
		// 429 and 5xx are transient; the caller retries.
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var result scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if result.Score < 0 || result.Score > 10 {
		return nil, fmt.Errorf("scoring service returned out-of-range score %.2f", result.Score)
	}

	return &ScoreResult{
		Score:     result.Score,
		Reasoning: result.Reasoning,
		Tier:      c.model,
		Attempts:  1,
	}, nil
}
