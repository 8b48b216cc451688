package models

import (
	"fmt"
	"time"
)

// SessionScope says whether a run covers one user or every user.
type SessionScope string

const (
	ScopeSingleUser SessionScope = "SINGLE_USER"
	ScopeAllUsers   SessionScope = "ALL_USERS"
)

// SessionStatus is the lifecycle state of an analysis run.
type SessionStatus string

const (
	SessionQueued    SessionStatus = "QUEUED"
	SessionRunning   SessionStatus = "RUNNING"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionFailed    SessionStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// CanTransitionTo enforces the forward-only state machine
// QUEUED → RUNNING → {COMPLETED, FAILED}.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionQueued:
		return next == SessionRunning || next == SessionFailed
	case SessionRunning:
		return next == SessionCompleted || next == SessionFailed
	default:
		return false
	}
}

// UserResult is the per-user outcome recorded in a session.
type UserResult struct {
	UserID          string `json:"user_id"`
	Recommendations int    `json:"recommendations"`
	Executed        int    `json:"executed,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Failed reports whether this user's evaluation errored.
func (r UserResult) Failed() bool { return r.Error != "" }

// AnalysisSession is the durable record of one engine run.
type AnalysisSession struct {
	ID                   string          `json:"id"`
	Scope                SessionScope    `json:"scope"`
	UserID               string          `json:"user_id,omitempty"`
	Status               SessionStatus   `json:"status"`
	DryRun               bool            `json:"dry_run"`
	StartedAt            time.Time       `json:"started_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	ProcessingTime       float64         `json:"processing_time_seconds"`
	SymbolsAnalyzed      int             `json:"symbols_analyzed"`
	TotalRecommendations int             `json:"total_recommendations"`
	ExecutedCount        int             `json:"executed_recommendations"`
	Summary              *SessionSummary `json:"summary,omitempty"`
	UserResults          []UserResult    `json:"user_results"`
	Error                string          `json:"error,omitempty"`
}

// Transition moves the session to next, rejecting backward moves.
func (s *AnalysisSession) Transition(next SessionStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return fmt.Errorf("session %s: invalid transition %s -> %s", s.ID, s.Status, next)
	}
	s.Status = next
	return nil
}

// UserOutcomes counts how many users succeeded and how many failed.
func (s AnalysisSession) UserOutcomes() (succeeded, failed int) {
	for _, r := range s.UserResults {
		if r.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
