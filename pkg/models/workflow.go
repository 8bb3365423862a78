package models

import (
	"time"
)

// Node names a step in the qualification workflow. The node graph is fixed:
//
//	analyze → qualify → route → {assign | human_review | reject} → finalize
type Node string

const (
	NodeAnalyze     Node = "analyze"
	NodeQualify     Node = "qualify"
	NodeRoute       Node = "route"
	NodeAssign      Node = "assign"
	NodeHumanReview Node = "human_review"
	NodeReject      Node = "reject"
	NodeFinalize    Node = "finalize"
)

// WorkflowStatus represents the run state of one workflow thread
type WorkflowStatus string

const (
	StatusRunning     WorkflowStatus = "running"
	StatusInterrupted WorkflowStatus = "interrupted"
	StatusCompleted   WorkflowStatus = "completed"
	StatusFailed      WorkflowStatus = "failed"
)

// Valid reports whether the status is one of the declared run states.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case StatusRunning, StatusInterrupted, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the run has finished. No node executes for a
// thread once its status is terminal.
func (s WorkflowStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Decision is a human reviewer's verdict on an interrupted run
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether the decision is one of the accepted verdicts.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// WorkflowState is the working record of one qualification run. It is
// checkpointed after every node, keyed by ThreadID. ThreadID is assigned once
// at workflow creation and never changes; a lead that is re-qualified gets a
// new thread.
type WorkflowState struct {
	ThreadID      string         `json:"thread_id" db:"thread_id"`
	LeadID        string         `json:"lead_id" db:"lead_id"`
	CurrentNode   Node           `json:"current_node" db:"current_node"`
	Status        WorkflowStatus `json:"status" db:"status"`
	Score         *float64       `json:"score,omitempty"`
	Reasoning     *string        `json:"reasoning,omitempty"`
	RetryCount    int            `json:"retry_count"`
	HumanDecision *Decision      `json:"human_decision,omitempty"`
	AssignedRepID *string        `json:"assigned_rep_id,omitempty"`
	Error         *string        `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of the state. Stores hand out clones so a caller
// can never mutate a checkpointed record in place.
func (s *WorkflowState) Clone() *WorkflowState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Score != nil {
		v := *s.Score
		c.Score = &v
	}
	if s.Reasoning != nil {
		v := *s.Reasoning
		c.Reasoning = &v
	}
	if s.HumanDecision != nil {
		v := *s.HumanDecision
		c.HumanDecision = &v
	}
	if s.AssignedRepID != nil {
		v := *s.AssignedRepID
		c.AssignedRepID = &v
	}
	if s.Error != nil {
		v := *s.Error
		c.Error = &v
	}
	return &c
}

// LeadStatus maps the final run state onto the lead projection status.
func (s *WorkflowState) LeadStatus() LeadStatus {
	switch {
	case s.Status == StatusInterrupted:
		return LeadStatusNeedsReview
	case s.Status == StatusFailed:
		return LeadStatusFailed
	case s.AssignedRepID != nil:
		return LeadStatusAssigned
	default:
		return LeadStatusRejected
	}
}
