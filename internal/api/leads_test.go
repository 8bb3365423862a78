package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/chetansirohi/Leads-Agent/internal/engine"
	"github.com/chetansirohi/Leads-Agent/internal/repository"
	"github.com/chetansirohi/Leads-Agent/internal/services"
	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}

type fixedScorer struct{ score float64 }

func (f *fixedScorer) Score(ctx context.Context, lead *models.LeadProfile) (*services.ScoreResult, error) {
	return &services.ScoreResult{Score: f.score, Reasoning: "fixed", Tier: "test", Attempts: 1}, nil
}

func newTestServer(t *testing.T, score float64) (*echo.Echo, *repository.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	if err := store.CreateLead(ctx, &models.LeadProfile{
		ID: "lead-1", Company: "AcmeCloud", Industry: "technology", Budget: 500_000, CompanySize: 1200,
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRep(ctx, &models.SalesRep{
		ID: "rep-1", Name: "Sarah Chen", Expertise: []string{"technology"}, MaxCapacity: 8, PerformanceScore: 4.6,
	}); err != nil {
		t.Fatal(err)
	}

	eng := engine.New(store, &fixedScorer{score: score}, engine.DefaultConfig(), nopLogger{})
	srv := NewServer(store, eng)

	e := echo.New()
	srv.RegisterRoutes(e.Group("/api/v1"), nil)
	e.GET("/health", srv.HandleHealth)
	return e, store
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := newTestServer(t, 8.5)

	rec := doRequest(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var health models.HealthStatus
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "leads-agent", health.Service)
}

func TestLeadEndpoints(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		e, store := newTestServer(t, 8.5)

		rec := doRequest(e, http.MethodPost, "/api/v1/leads",
			`{"id":"lead-2","company":"Brightline Health","industry":"healthcare","budget":80000,"company_size":300}`)
		assert.Equal(t, http.StatusCreated, rec.Code)

		lead, err := store.GetLead(context.Background(), "lead-2")
		assert.NoError(t, err)
		assert.Equal(t, models.LeadStatusNew, lead.Status)
	})

	t.Run("create generates an ID when omitted", func(t *testing.T) {
		e, _ := newTestServer(t, 8.5)

		rec := doRequest(e, http.MethodPost, "/api/v1/leads", `{"company":"X","industry":"saas","budget":1}`)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var created models.LeadProfile
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
	})

	t.Run("create rejects negative budget", func(t *testing.T) {
		e, _ := newTestServer(t, 8.5)

		rec := doRequest(e, http.MethodPost, "/api/v1/leads", `{"company":"X","industry":"saas","budget":-5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/problem+json")
	})

	t.Run("get and list", func(t *testing.T) {
		e, _ := newTestServer(t, 8.5)

		rec := doRequest(e, http.MethodGet, "/api/v1/leads/lead-1", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(e, http.MethodGet, "/api/v1/leads/lead-404", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(e, http.MethodGet, "/api/v1/leads", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var leads []*models.LeadProfile
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leads))
		assert.Len(t, leads, 1)
	})
}

func TestQualifyEndpoint(t *testing.T) {
	t.Run("high score assigns", func(t *testing.T) {
		e, _ := newTestServer(t, 8.5)

		rec := doRequest(e, http.MethodPost, "/api/v1/leads/lead-1/qualify", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp QualificationResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "assigned", resp.Status)
		assert.Equal(t, "rep-1", *resp.AssignedRepID)
		assert.NotEmpty(t, resp.ThreadID)
	})

	t.Run("mid score suspends", func(t *testing.T) {
		e, _ := newTestServer(t, 6.0)

		rec := doRequest(e, http.MethodPost, "/api/v1/leads/lead-1/qualify", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp QualificationResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "needs_review", resp.Status)
		assert.Nil(t, resp.AssignedRepID)
	})

	t.Run("unknown lead", func(t *testing.T) {
		e, _ := newTestServer(t, 8.5)

		rec := doRequest(e, http.MethodPost, "/api/v1/leads/lead-404/qualify", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDecisionEndpoint(t *testing.T) {
	qualify := func(t *testing.T, e *echo.Echo) string {
		t.Helper()
		rec := doRequest(e, http.MethodPost, "/api/v1/leads/lead-1/qualify", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		var resp QualificationResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "needs_review", resp.Status)
		return resp.ThreadID
	}

	t.Run("approve", func(t *testing.T) {
		e, _ := newTestServer(t, 6.0)
		threadID := qualify(t, e)

		rec := doRequest(e, http.MethodPost, "/api/v1/workflows/"+threadID+"/decision", `{"decision":"approve"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp QualificationResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "assigned", resp.Status)
		assert.Equal(t, "rep-1", *resp.AssignedRepID)
	})

	t.Run("decision is case insensitive", func(t *testing.T) {
		e, _ := newTestServer(t, 6.0)
		threadID := qualify(t, e)

		rec := doRequest(e, http.MethodPost, "/api/v1/workflows/"+threadID+"/decision", `{"decision":" Reject "}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp QualificationResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "rejected", resp.Status)
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		e, _ := newTestServer(t, 6.0)
		threadID := qualify(t, e)

		rec := doRequest(e, http.MethodPost, "/api/v1/workflows/"+threadID+"/decision", `{"decision":"approve"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(e, http.MethodPost, "/api/v1/workflows/"+threadID+"/decision", `{"decision":"reject"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid decision", func(t *testing.T) {
		e, _ := newTestServer(t, 6.0)
		threadID := qualify(t, e)

		rec := doRequest(e, http.MethodPost, "/api/v1/workflows/"+threadID+"/decision", `{"decision":"maybe"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown thread", func(t *testing.T) {
		e, _ := newTestServer(t, 6.0)

		rec := doRequest(e, http.MethodPost, "/api/v1/workflows/not-a-thread/decision", `{"decision":"approve"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestWorkflowStatusEndpoint(t *testing.T) {
	e, _ := newTestServer(t, 6.0)

	rec := doRequest(e, http.MethodPost, "/api/v1/leads/lead-1/qualify", "")
	var qr QualificationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qr))

	rec = doRequest(e, http.MethodGet, "/api/v1/workflows/"+qr.ThreadID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var status WorkflowStatusResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "interrupted", status.Status)
	assert.Equal(t, "human_review", status.CurrentNode)
	assert.Equal(t, "lead-1", status.LeadID)

	rec = doRequest(e, http.MethodGet, "/api/v1/workflows/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRepsEndpoint(t *testing.T) {
	e, _ := newTestServer(t, 8.5)

	rec := doRequest(e, http.MethodGet, "/api/v1/reps", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var reps []*models.SalesRep
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reps))
	assert.Len(t, reps, 1)
	assert.Equal(t, "rep-1", reps[0].ID)
}
