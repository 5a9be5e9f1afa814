// Package types provides type definitions for structured data used throughout the talent-pool system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CreateFolderRequest represents the request to create a folder.
type CreateFolderRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=80"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Color       string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// MoveRequest represents a request to move one or many candidates to a folder.
type MoveRequest struct {
	CandidateIDs   []string `json:"candidate_ids,omitempty" validate:"omitempty,dive,required"`
	TargetFolderID string   `json:"target_folder_id" validate:"required"`
}

// StartBatchRequest represents a request to screen a set of candidates.
type StartBatchRequest struct {
	CandidateIDs []string `json:"candidate_ids" validate:"dive,required"`
}

// CandidateInput is a candidate record as supplied by an ingestion feed.
// SummaryHTML is used when Summary is empty and is reduced to plain text on ingest.
type CandidateInput struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Position    string    `json:"position,omitempty"`
	Company     string    `json:"company,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	AppliedAt   time.Time `json:"applied_at"`
	Summary     string    `json:"summary,omitempty"`
	SummaryHTML string    `json:"summary_html,omitempty"`
	FolderID    string    `json:"folder_id,omitempty"`
}

// ViewRequest sets the selection controller's active view.
type ViewRequest struct {
	FolderID string `json:"folder_id,omitempty"`
	Text     string `json:"text,omitempty"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=pending screening shortlisted interviewed rejected"`
	SortBy   string `json:"sort_by,omitempty" validate:"omitempty,oneof=name applied_at score status"`
	Desc     bool   `json:"desc,omitempty"`
}

// Validate validates the CreateFolderRequest using the validator.
func (r *CreateFolderRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the MoveRequest using the validator.
func (r *MoveRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the StartBatchRequest using the validator.
func (r *StartBatchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CandidateInput using the validator.
func (r *CandidateInput) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ViewRequest using the validator.
func (r *ViewRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ToCandidate converts feed input into a pending candidate record.
func (r CandidateInput) ToCandidate() Candidate {
	return Candidate{
		ID:              r.ID,
		Name:            r.Name,
		Position:        r.Position,
		Company:         r.Company,
		Skills:          NormalizeSkills(r.Skills),
		AppliedAt:       r.AppliedAt,
		Summary:         r.Summary,
		FolderID:        r.FolderID,
		ScreeningStatus: StatusPending,
	}
}
