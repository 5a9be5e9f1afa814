// Package types provides type definitions for structured data used throughout the talent-pool system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// BatchState is the lifecycle state of a screening batch.
type BatchState string

// Batch states
const (
	BatchIdle                BatchState = "idle"
	BatchSelecting           BatchState = "selecting"
	BatchInProgress          BatchState = "in_progress"
	BatchCompleted           BatchState = "completed"
	BatchCompletedWithErrors BatchState = "completed_with_errors"
	BatchCancelled           BatchState = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s BatchState) Terminal() bool {
	switch s {
	case BatchCompleted, BatchCompletedWithErrors, BatchCancelled:
		return true
	default:
		return false
	}
}

// OutcomeKind classifies a per-candidate batch outcome.
type OutcomeKind string

// Outcome kinds
const (
	OutcomePending OutcomeKind = "pending"
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

// ItemOutcome is the result of screening one candidate inside a batch.
type ItemOutcome struct {
	Kind   OutcomeKind     `json:"kind"`
	Score  *float64        `json:"score,omitempty"`
	Status ScreeningStatus `json:"status,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// Batch is a point-in-time view of a screening batch.
type Batch struct {
	ID              string                 `json:"id"`
	State           BatchState             `json:"state"`
	CandidateIDs    []string               `json:"candidate_ids"`
	Outcomes        map[string]ItemOutcome `json:"outcomes"`
	AlreadyScreened []string               `json:"already_screened,omitempty"`
	CancelRequested bool                   `json:"cancel_requested,omitempty"`
	Message         string                 `json:"message,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	FinishedAt      *time.Time             `json:"finished_at,omitempty"`
}

// BatchSummary tallies the outcomes of a batch.
type BatchSummary struct {
	Total           int `json:"total"`
	Succeeded       int `json:"succeeded"`
	Failed          int `json:"failed"`
	Pending         int `json:"pending"`
	AlreadyScreened int `json:"already_screened"`
}

// Summary counts the batch's outcomes by kind.
func (b Batch) Summary() BatchSummary {
	s := BatchSummary{Total: len(b.CandidateIDs), AlreadyScreened: len(b.AlreadyScreened)}
	for _, id := range b.CandidateIDs {
		switch b.Outcomes[id].Kind {
		case OutcomeSuccess:
			s.Succeeded++
		case OutcomeFailure:
			s.Failed++
		default:
			s.Pending++
		}
	}
	return s
}
