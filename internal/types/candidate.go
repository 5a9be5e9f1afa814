// Package types provides type definitions for structured data used throughout the talent-pool system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ScreeningStatus is the closed set of screening states a candidate can be in.
type ScreeningStatus string

// Screening statuses
const (
	StatusPending     ScreeningStatus = "pending"
	StatusScreening   ScreeningStatus = "screening"
	StatusShortlisted ScreeningStatus = "shortlisted"
	StatusInterviewed ScreeningStatus = "interviewed"
	StatusRejected    ScreeningStatus = "rejected"
)

// AllStatuses lists every valid screening status in pipeline order.
var AllStatuses = []ScreeningStatus{
	StatusPending,
	StatusScreening,
	StatusShortlisted,
	StatusInterviewed,
	StatusRejected,
}

// Valid reports whether s is one of the known statuses.
func (s ScreeningStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw string into a ScreeningStatus.
func ParseStatus(raw string) (ScreeningStatus, error) {
	s := ScreeningStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", &ValidationError{Field: "screening_status", Message: fmt.Sprintf("unknown status %q", raw)}
	}
	return s, nil
}

// Candidate is a single record in the talent pool.
type Candidate struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Position           string          `json:"position,omitempty"`
	Company            string          `json:"company,omitempty"`
	Skills             []string        `json:"skills,omitempty"`
	AppliedAt          time.Time       `json:"applied_at"`
	Summary            string          `json:"summary,omitempty"`
	FolderID           string          `json:"folder_id"`
	ScreeningStatus    ScreeningStatus `json:"screening_status"`
	ScreeningScore     *float64        `json:"screening_score,omitempty"`
	LastScreeningError *string         `json:"last_screening_error,omitempty"`
}

// Clone returns a deep copy of the candidate.
func (c Candidate) Clone() Candidate {
	out := c
	if c.Skills != nil {
		out.Skills = append([]string(nil), c.Skills...)
	}
	if c.ScreeningScore != nil {
		v := *c.ScreeningScore
		out.ScreeningScore = &v
	}
	if c.LastScreeningError != nil {
		v := *c.LastScreeningError
		out.LastScreeningError = &v
	}
	return out
}

// Eligible reports whether the candidate can be submitted to a screening batch.
func (c Candidate) Eligible() bool {
	return c.ScreeningStatus == StatusPending && c.ScreeningScore == nil
}

// Patch is a partial candidate update. Nil fields are left untouched.
type Patch struct {
	ID        string
	Name      *string
	Position  *string
	Company   *string
	Skills    *[]string
	AppliedAt *time.Time
	Summary   *string
	FolderID  *string

	ScreeningStatus *ScreeningStatus
	// ScreeningScore and LastScreeningError are double pointers so a patch can
	// distinguish "leave alone" (nil) from "clear" (pointer to nil).
	ScreeningScore     **float64
	LastScreeningError **string
}

// PatchFromCandidate builds a patch that sets every attribute of c.
func PatchFromCandidate(c Candidate) Patch {
	c = c.Clone()
	skills := c.Skills
	p := Patch{
		ID:        c.ID,
		Name:      &c.Name,
		Position:  &c.Position,
		Company:   &c.Company,
		Skills:    &skills,
		AppliedAt: &c.AppliedAt,
		Summary:   &c.Summary,
	}
	if c.FolderID != "" {
		p.FolderID = &c.FolderID
	}
	if c.ScreeningStatus != "" {
		status := c.ScreeningStatus
		p.ScreeningStatus = &status
	}
	if c.ScreeningScore != nil {
		score := c.ScreeningScore
		p.ScreeningScore = &score
	}
	if c.LastScreeningError != nil {
		msg := c.LastScreeningError
		p.LastScreeningError = &msg
	}
	return p
}

// ScreeningPatch builds a patch that only touches screening fields.
func ScreeningPatch(id string, status ScreeningStatus, score *float64, lastErr *string) Patch {
	return Patch{
		ID:                 id,
		ScreeningStatus:    &status,
		ScreeningScore:     &score,
		LastScreeningError: &lastErr,
	}
}

// Apply writes the non-nil fields of p onto c.
func (p Patch) Apply(c *Candidate) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Skills != nil {
		c.Skills = NormalizeSkills(*p.Skills)
	}
	if p.AppliedAt != nil {
		c.AppliedAt = *p.AppliedAt
	}
	if p.Summary != nil {
		c.Summary = *p.Summary
	}
	if p.FolderID != nil {
		c.FolderID = *p.FolderID
	}
	if p.ScreeningStatus != nil {
		c.ScreeningStatus = *p.ScreeningStatus
	}
	if p.ScreeningScore != nil {
		if *p.ScreeningScore == nil {
			c.ScreeningScore = nil
		} else {
			v := **p.ScreeningScore
			c.ScreeningScore = &v
		}
	}
	if p.LastScreeningError != nil {
		if *p.LastScreeningError == nil {
			c.LastScreeningError = nil
		} else {
			v := **p.LastScreeningError
			c.LastScreeningError = &v
		}
	}
}

// NormalizeSkills trims, de-duplicates (case-insensitively) and sorts a skill list.
func NormalizeSkills(skills []string) []string {
	if len(skills) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
