package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chetansirohi/Leads-Agent/internal/engine"
	"github.com/chetansirohi/Leads-Agent/internal/repository"
	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Repo   repository.Repository
	Engine *engine.Engine
}

// NewServer creates a new Server.
func NewServer(repo repository.Repository, eng *engine.Engine) *Server {
	return &Server{Repo: repo, Engine: eng}
}

// RegisterRoutes mounts the API routes onto an echo group. requireAuth, when
// not nil, guards the decision endpoint: submitting a human verdict is the
// one operation that must be attributable to a reviewer.
func (s *Server) RegisterRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/leads", s.CreateLead)
	g.GET("/leads", s.ListLeads)
	g.GET("/leads/:id", s.GetLead)
	g.POST("/leads/:id/qualify", s.QualifyLead)
	g.GET("/reps", s.ListReps)
	g.GET("/workflows/:thread_id", s.GetWorkflowStatus)

	if requireAuth != nil {
		g.POST("/workflows/:thread_id/decision", s.SubmitDecision, requireAuth)
	} else {
		g.POST("/workflows/:thread_id/decision", s.SubmitDecision)
	}
}

// QualificationResponse is the result of starting or resuming a workflow.
type QualificationResponse struct {
	ThreadID      string   `json:"thread_id"`
	Status        string   `json:"status"`
	Score         *float64 `json:"score,omitempty"`
	Reasoning     *string  `json:"reasoning,omitempty"`
	AssignedRepID *string  `json:"assigned_rep_id,omitempty"`
	Error         *string  `json:"error,omitempty"`
}

// WorkflowStatusResponse is the read-only view of a checkpoint.
type WorkflowStatusResponse struct {
	ThreadID    string   `json:"thread_id"`
	Status      string   `json:"status"`
	CurrentNode string   `json:"current_node"`
	LeadID      string   `json:"lead_id"`
	Score       *float64 `json:"score,omitempty"`
	Error       *string  `json:"error,omitempty"`
}

// DecisionRequest carries a human reviewer's verdict.
type DecisionRequest struct {
	Decision string `json:"decision"`
}

// CreateLead stores a new lead
// (POST /api/v1/leads)
func (s *Server) CreateLead(c echo.Context) error {
	ctx := c.Request().Context()

	var lead models.LeadProfile
	if err := c.Bind(&lead); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Budget < 0 {
		return problem(c, http.StatusBadRequest, "Invalid lead", "budget must not be negative")
	}
	lead.Status = models.LeadStatusNew

	if err := s.Repo.CreateLead(ctx, &lead); err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to create lead", err.Error())
	}
	return c.JSON(http.StatusCreated, lead)
}

// ListLeads returns all leads
// (GET /api/v1/leads)
func (s *Server) ListLeads(c echo.Context) error {
	leads, err := s.Repo.ListLeads(c.Request().Context())
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to list leads", err.Error())
	}
	if leads == nil {
		leads = []*models.LeadProfile{}
	}
	return c.JSON(http.StatusOK, leads)
}

// GetLead returns one lead by ID
// (GET /api/v1/leads/:id)
func (s *Server) GetLead(c echo.Context) error {
	lead, err := s.Repo.GetLead(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Lead not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to fetch lead", err.Error())
	}
	return c.JSON(http.StatusOK, lead)
}

// ListReps returns the rep pool with current load
// (GET /api/v1/reps)
func (s *Server) ListReps(c echo.Context) error {
	reps, err := s.Repo.ListReps(c.Request().Context())
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to list reps", err.Error())
	}
	if reps == nil {
		reps = []*models.SalesRep{}
	}
	return c.JSON(http.StatusOK, reps)
}

// QualifyLead starts a qualification workflow for a lead
// (POST /api/v1/leads/:id/qualify)
func (s *Server) QualifyLead(c echo.Context) error {
	ctx := c.Request().Context()

	state, err := s.Engine.Start(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Lead not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Workflow failed to run", err.Error())
	}
	return c.JSON(http.StatusOK, qualificationResponse(state))
}

// SubmitDecision resumes an interrupted workflow with a human decision
// (POST /api/v1/workflows/:thread_id/decision)
func (s *Server) SubmitDecision(c echo.Context) error {
	ctx := c.Request().Context()

	var req DecisionRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}

	decision := models.Decision(strings.ToLower(strings.TrimSpace(req.Decision)))
	state, err := s.Engine.Resume(ctx, c.Param("thread_id"), decision)
	switch {
	case errors.Is(err, engine.ErrInvalidDecision):
		return problem(c, http.StatusBadRequest, "Invalid decision", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return problem(c, http.StatusNotFound, "Workflow not found", err.Error())
	case errors.Is(err, engine.ErrInvalidState):
		return problem(c, http.StatusConflict, "Workflow not awaiting decision", err.Error())
	case err != nil:
		return problem(c, http.StatusInternalServerError, "Workflow failed to resume", err.Error())
	}
	return c.JSON(http.StatusOK, qualificationResponse(state))
}

// GetWorkflowStatus returns the checkpointed state of a workflow thread
// (GET /api/v1/workflows/:thread_id)
func (s *Server) GetWorkflowStatus(c echo.Context) error {
	state, err := s.Engine.Status(c.Request().Context(), c.Param("thread_id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Workflow not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to load workflow", err.Error())
	}

	return c.JSON(http.StatusOK, WorkflowStatusResponse{
		ThreadID:    state.ThreadID,
		Status:      string(state.Status),
		CurrentNode: string(state.CurrentNode),
		LeadID:      state.LeadID,
		Score:       state.Score,
		Error:       state.Error,
	})
}

// qualificationResponse maps a run state onto the wire status the request
// layer exposes: assigned, needs_review, rejected or failed.
func qualificationResponse(state *models.WorkflowState) QualificationResponse {
	return QualificationResponse{
		ThreadID:      state.ThreadID,
		Status:        string(state.LeadStatus()),
		Score:         state.Score,
		Reasoning:     state.Reasoning,
		AssignedRepID: state.AssignedRepID,
		Error:         state.Error,
	}
}
