// Package types provides type definitions for structured data used throughout the talent-pool system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
)

// ValidationError indicates bad caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NotFoundError indicates an unknown id
type NotFoundError struct {
	Kind string // "candidate", "folder", "batch"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ProtectedEntityError indicates an illegal operation on a protected entity,
// such as deleting the default folder.
type ProtectedEntityError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *ProtectedEntityError) Error() string {
	return fmt.Sprintf("%s %s is protected: %s", e.Kind, e.ID, e.Reason)
}

// EmptyBatchError indicates that no submitted candidate was eligible for screening
type EmptyBatchError struct {
	Requested       int
	AlreadyScreened []string
}

func (e *EmptyBatchError) Error() string {
	if e.Requested == 0 {
		return "no candidates submitted for screening"
	}
	return fmt.Sprintf("no eligible candidates: %d submitted, %d already screened", e.Requested, len(e.AlreadyScreened))
}

// NoOpError reports a move whose target is the candidate's current folder.
// It is informational and never treated as a failure.
type NoOpError struct {
	CandidateID string
	FolderID    string
}

func (e *NoOpError) Error() string {
	return fmt.Sprintf("candidate %s is already in folder %s", e.CandidateID, e.FolderID)
}

// ScoringError captures a failed scoring invocation for a single candidate
type ScoringError struct {
	CandidateID string
	Cause       error
}

func (e *ScoringError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring failed for %s: %v", e.CandidateID, e.Cause)
	}
	return fmt.Sprintf("scoring failed for %s", e.CandidateID)
}

func (e *ScoringError) Unwrap() error {
	return e.Cause
}
