// Package engine executes the lead qualification workflow as a fixed node
// machine with durable checkpoints:
//
//	analyze → qualify → route → {assign | human_review | reject} → finalize
//
// State is checkpointed after every node, so a crashed run can be continued
// from the last completed node, and a run waiting for a human decision holds
// no goroutine, timer or connection — it exists only as a checkpoint record
// until Resume is called with its thread ID.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chetansirohi/Leads-Agent/internal/repository"
	"github.com/chetansirohi/Leads-Agent/internal/services"
	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

// ErrInvalidState is returned by Resume when the thread is not interrupted,
// which guards against applying a decision twice.
var ErrInvalidState = errors.New("workflow is not awaiting a decision")

// ErrInvalidDecision is returned by Resume for a decision outside {approve, reject}.
var ErrInvalidDecision = errors.New("invalid decision")

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Config holds the routing and matching business parameters. These are
// configuration, not contracts; the defaults match the shipped behavior.
type Config struct {
	// AssignThreshold routes scores at or above it straight to a rep.
	AssignThreshold float64
	// ReviewThreshold routes scores in [ReviewThreshold, AssignThreshold)
	// to human review; anything lower is rejected.
	ReviewThreshold float64
	// ConfidenceMargin is the winner-vs-runner-up gap for a high-confidence match.
	ConfidenceMargin float64
}

// DefaultConfig returns the default business parameters.
func DefaultConfig() Config {
	return Config{
		AssignThreshold:  8.0,
		ReviewThreshold:  5.0,
		ConfidenceMargin: 1.0,
	}
}

// Engine runs qualification workflows. It holds no per-run state: everything
// a run needs travels in its WorkflowState, so any number of runs may execute
// concurrently as long as each thread has a single caller at a time.
type Engine struct {
	repo    repository.Repository
	scorer  services.Scorer
	cfg     Config
	logger  Logger
	metrics *engineMetrics
}

// New creates a new Engine.
func New(repo repository.Repository, scorer services.Scorer, cfg Config, logger Logger) *Engine {
	if cfg.AssignThreshold == 0 && cfg.ReviewThreshold == 0 {
		cfg = DefaultConfig()
	}
	return &Engine{
		repo:    repo,
		scorer:  scorer,
		cfg:     cfg,
		logger:  logger,
		metrics: newEngineMetrics(),
	}
}

// Start creates a fresh workflow thread for a lead and runs it until a
// terminal state or the human-review suspension point. The returned state
// always carries the thread ID, including on suspension.
func (e *Engine) Start(ctx context.Context, leadID string) (*models.WorkflowState, error) {
	lead, err := e.repo.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	state := &models.WorkflowState{
		ThreadID:    uuid.New().String(),
		LeadID:      leadID,
		CurrentNode: models.NodeAnalyze,
		Status:      models.StatusRunning,
		CreatedAt:   time.Now().UTC(),
	}

	// Mark the lead in progress and pin the thread to it for the duration of
	// the run; the terminal projection overwrites both.
	lead.Status = models.LeadStatusInProgress
	lead.ThreadID = &state.ThreadID
	if err := e.repo.UpdateLeadOutcome(ctx, lead); err != nil {
		e.logger.Warn("workflow %s: failed to mark lead %s in progress: %v", state.ThreadID, leadID, err)
	}

	e.metrics.runStarted(ctx)
	e.logger.Info("workflow %s started for lead %s", state.ThreadID, leadID)
	return e.run(ctx, state, lead)
}

// Resume continues a thread that suspended at human review, applying the
// reviewer's decision. The state guard runs before any mutation: a second
// resume of the same thread fails with ErrInvalidState and leaves the first
// resume's effect untouched.
func (e *Engine) Resume(ctx context.Context, threadID string, decision models.Decision) (*models.WorkflowState, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	state, err := e.repo.LoadCheckpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if state.Status != models.StatusInterrupted {
		return nil, fmt.Errorf("%w: thread %s has status %s", ErrInvalidState, threadID, state.Status)
	}

	lead, err := e.repo.GetLead(ctx, state.LeadID)
	if err != nil {
		return nil, err
	}

	state.Status = models.StatusRunning
	state.HumanDecision = &decision
	if decision == models.DecisionApprove {
		state.CurrentNode = models.NodeAssign
	} else {
		state.CurrentNode = models.NodeReject
	}

	e.logger.Info("workflow %s resumed with decision %s", threadID, decision)
	return e.run(ctx, state, lead)
}

// Continue picks up a running thread from its last checkpoint, for recovery
// after a process restart. Interrupted and terminal threads are returned
// unchanged: the former wait for Resume, the latter are done.
func (e *Engine) Continue(ctx context.Context, threadID string) (*models.WorkflowState, error) {
	state, err := e.repo.LoadCheckpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if state.Status != models.StatusRunning {
		return state, nil
	}

	lead, err := e.repo.GetLead(ctx, state.LeadID)
	if err != nil {
		return nil, err
	}

	next, err := e.nextAfter(state)
	if err != nil {
		return nil, err
	}
	if next == "" {
		return state, nil
	}
	state.CurrentNode = next

	e.logger.Info("workflow %s continuing at node %s", threadID, next)
	return e.run(ctx, state, lead)
}

// Status returns the checkpointed state of a thread without touching the run.
func (e *Engine) Status(ctx context.Context, threadID string) (*models.WorkflowState, error) {
	return e.repo.LoadCheckpoint(ctx, threadID)
}

// run drives the node loop. Each node mutates the state, checkpoints it, and
// names its successor; the loop stops on suspension, after finalize, or on a
// checkpoint failure, in which case the run is not considered advanced past
// its last successful checkpoint.
func (e *Engine) run(ctx context.Context, state *models.WorkflowState, lead *models.LeadProfile) (*models.WorkflowState, error) {
	for {
		next, err := e.step(ctx, state, lead)
		if err != nil {
			return state, err
		}

		if state.Status == models.StatusInterrupted {
			e.metrics.runInterrupted(ctx)
			e.projectOutcome(ctx, state, lead)
			return state, nil
		}
		if next == "" {
			e.metrics.runFinished(ctx, state.Status)
			return state, nil
		}
		state.CurrentNode = next
	}
}

func (e *Engine) step(ctx context.Context, state *models.WorkflowState, lead *models.LeadProfile) (models.Node, error) {
	started := time.Now()
	var next models.Node
	var err error

	switch state.CurrentNode {
	case models.NodeAnalyze:
		next, err = e.analyze(ctx, state, lead)
	case models.NodeQualify:
		next, err = e.qualify(ctx, state, lead)
	case models.NodeRoute:
		next, err = e.route(ctx, state)
	case models.NodeAssign:
		next, err = e.assign(ctx, state, lead)
	case models.NodeHumanReview:
		next, err = e.humanReview(ctx, state)
	case models.NodeReject:
		next, err = e.reject(ctx, state)
	case models.NodeFinalize:
		next, err = e.finalize(ctx, state, lead)
	default:
		return "", fmt.Errorf("unknown workflow node %q", state.CurrentNode)
	}

	e.metrics.nodeExecuted(ctx, state.CurrentNode, time.Since(started))
	return next, err
}

// analyze validates the lead profile. Malformed input fails the run.
func (e *Engine) analyze(ctx context.Context, state *models.WorkflowState, lead *models.LeadProfile) (models.Node, error) {
	if err := services.ValidateLead(lead); err != nil {
		e.logger.Warn("workflow %s: invalid lead %s: %v", state.ThreadID, lead.ID, err)
		return e.fail(ctx, state, err)
	}
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	return models.NodeQualify, nil
}

// qualify scores the lead through the tiered scoring chain.
func (e *Engine) qualify(ctx context.Context, state *models.WorkflowState, lead *models.LeadProfile) (models.Node, error) {
	result, err := e.scorer.Score(ctx, lead)
	if err != nil {
		// Transient failures never reach this point; the chain absorbs
		// them. Anything else fails the run.
		e.logger.Warn("workflow %s: scoring failed: %v", state.ThreadID, err)
		return e.fail(ctx, state, err)
	}

	state.Score = &result.Score
	state.Reasoning = &result.Reasoning
	state.RetryCount = result.Attempts

	e.logger.Info("workflow %s: lead %s scored %.1f via %s", state.ThreadID, lead.ID, result.Score, result.Tier)
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	return models.NodeRoute, nil
}

// route applies the score thresholds. Deterministic, no side effects beyond
// the checkpoint.
func (e *Engine) route(ctx context.Context, state *models.WorkflowState) (models.Node, error) {
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	return e.routeTarget(state), nil
}

func (e *Engine) routeTarget(state *models.WorkflowState) models.Node {
	score := 0.0
	if state.Score != nil {
		score = *state.Score
	}
	switch {
	case score >= e.cfg.AssignThreshold:
		return models.NodeAssign
	case score >= e.cfg.ReviewThreshold:
		return models.NodeHumanReview
	default:
		return models.NodeReject
	}
}

// assign matches the lead to a rep and completes the run.
func (e *Engine) assign(ctx context.Context, state *models.WorkflowState, lead *models.LeadProfile) (models.Node, error) {
	reps, err := e.repo.ListReps(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list reps: %w", err)
	}

	match, err := services.MatchRep(lead, reps, e.cfg.ConfidenceMargin)
	if err != nil {
		// No reps at all. Failed, but surfaced distinctly so the caller
		// can requalify once capacity frees up.
		e.logger.Warn("workflow %s: %v", state.ThreadID, err)
		return e.fail(ctx, state, err)
	}

	state.AssignedRepID = &match.RepID
	if state.Reasoning != nil {
		combined := fmt.Sprintf("%s | match (%s confidence): %s", *state.Reasoning, match.Confidence, match.Rationale)
		state.Reasoning = &combined
	}
	state.Status = models.StatusCompleted

	e.logger.Info("workflow %s: lead %s assigned to rep %s (%s confidence)",
		state.ThreadID, lead.ID, match.RepID, match.Confidence)
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	return models.NodeFinalize, nil
}

// humanReview checkpoints the run as interrupted and suspends. No resources
// are held while waiting; Resume is the only way forward.
func (e *Engine) humanReview(ctx context.Context, state *models.WorkflowState) (models.Node, error) {
	state.Status = models.StatusInterrupted
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	e.logger.Info("workflow %s suspended for human review (score %.1f)", state.ThreadID, deref(state.Score))
	return "", nil
}

// reject completes the run without an assignment.
func (e *Engine) reject(ctx context.Context, state *models.WorkflowState) (models.Node, error) {
	state.AssignedRepID = nil
	state.Status = models.StatusCompleted
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	return models.NodeFinalize, nil
}

// finalize writes the terminal checkpoint and only then projects the outcome
// onto the lead record and the rep's load. The checkpoint stays the durable
// source of truth: a projection failure is logged, not fatal.
func (e *Engine) finalize(ctx context.Context, state *models.WorkflowState, lead *models.LeadProfile) (models.Node, error) {
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	e.projectOutcome(ctx, state, lead)
	return "", nil
}

// fail moves the run to failed with the error recorded, then heads to finalize.
func (e *Engine) fail(ctx context.Context, state *models.WorkflowState, cause error) (models.Node, error) {
	msg := cause.Error()
	state.Error = &msg
	state.Status = models.StatusFailed
	if err := e.checkpoint(ctx, state); err != nil {
		return "", err
	}
	return models.NodeFinalize, nil
}

func (e *Engine) checkpoint(ctx context.Context, state *models.WorkflowState) error {
	if err := e.repo.SaveCheckpoint(ctx, state); err != nil {
		e.logger.Error("workflow %s: checkpoint at node %s failed: %v", state.ThreadID, state.CurrentNode, err)
		return err
	}
	return nil
}

// projectOutcome pushes the run result onto the lead record. While a run is
// interrupted the lead keeps the thread ID so the review surface can resume
// it; terminal runs clear it.
func (e *Engine) projectOutcome(ctx context.Context, state *models.WorkflowState, lead *models.LeadProfile) {
	lead.Status = state.LeadStatus()
	lead.Score = state.Score
	lead.Reasoning = state.Reasoning
	lead.AssignedRepID = state.AssignedRepID
	if state.Status == models.StatusInterrupted {
		lead.ThreadID = &state.ThreadID
	} else {
		lead.ThreadID = nil
	}

	if err := e.repo.UpdateLeadOutcome(ctx, lead); err != nil {
		e.logger.Warn("workflow %s: failed to project outcome onto lead %s: %v", state.ThreadID, lead.ID, err)
		return
	}

	if state.Status == models.StatusCompleted && state.AssignedRepID != nil {
		if err := e.repo.IncrementRepLoad(ctx, *state.AssignedRepID, 1); err != nil {
			e.logger.Warn("workflow %s: failed to bump load for rep %s: %v", state.ThreadID, *state.AssignedRepID, err)
		}
	}
}

// nextAfter names the node that follows the last completed one, for Continue.
func (e *Engine) nextAfter(state *models.WorkflowState) (models.Node, error) {
	if state.Status.Terminal() {
		return "", nil
	}
	switch state.CurrentNode {
	case models.NodeAnalyze:
		return models.NodeQualify, nil
	case models.NodeQualify:
		return models.NodeRoute, nil
	case models.NodeRoute:
		return e.routeTarget(state), nil
	case models.NodeAssign, models.NodeReject:
		return models.NodeFinalize, nil
	case models.NodeFinalize:
		return "", nil
	default:
		return "", fmt.Errorf("cannot continue from node %q", state.CurrentNode)
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
