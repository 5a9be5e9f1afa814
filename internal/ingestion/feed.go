package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/talent-pool/internal/schemas"
	"github.com/jonathan/talent-pool/internal/types"
)

// FeedFolder is a folder declared by a feed.
type FeedFolder struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// FeedCandidate is a candidate record in a feed. Folder refers to a folder
// by name; empty means the default folder.
type FeedCandidate struct {
	types.CandidateInput
	Folder string `json:"folder,omitempty"`
}

// Feed is a batch of folders and candidates to load.
type Feed struct {
	Folders    []FeedFolder    `json:"folders,omitempty"`
	Candidates []FeedCandidate `json:"candidates"`
}

// Error reports a feed that could not be loaded.
type Error struct {
	Source string
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid candidate feed %s: %v", e.Source, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// LoadFeed reads and parses a feed file.
func LoadFeed(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	feed, err := ParseFeed(data)
	if err != nil {
		var ferr *Error
		if errors.As(err, &ferr) {
			ferr.Source = path
		}
		return nil, err
	}
	return feed, nil
}

// ParseFeed validates data against the candidate feed schema, decodes it and
// converts HTML summaries to text. Duplicate candidate ids are rejected.
func ParseFeed(data []byte) (*Feed, error) {
	if err := schemas.Validate(schemas.CandidateFeed, data); err != nil {
		return nil, &Error{Source: "(inline)", Cause: err}
	}

	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, &Error{Source: "(inline)", Cause: err}
	}

	seen := make(map[string]struct{}, len(feed.Candidates))
	for i := range feed.Candidates {
		c := &feed.Candidates[i]
		if err := c.Validate(); err != nil {
			return nil, &Error{Source: "(inline)", Cause: fmt.Errorf("candidate %d: %w", i, err)}
		}
		if _, dup := seen[c.ID]; dup {
			return nil, &Error{Source: "(inline)", Cause: fmt.Errorf("duplicate candidate id %s", c.ID)}
		}
		seen[c.ID] = struct{}{}

		if strings.TrimSpace(c.Summary) == "" && c.SummaryHTML != "" {
			text, err := HTMLToText(c.SummaryHTML)
			if err != nil {
				return nil, &Error{Source: "(inline)", Cause: fmt.Errorf("candidate %s: %w", c.ID, err)}
			}
			c.Summary = text
		}
		c.SummaryHTML = ""
	}
	return &feed, nil
}

// Summarizer shortens long summaries. It is optional.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ShortenSummaries replaces summaries longer than maxLen using s. Failures
// keep the original text and are returned together.
func (f *Feed) ShortenSummaries(ctx context.Context, s Summarizer, maxLen int) []error {
	var errs []error
	for i := range f.Candidates {
		c := &f.Candidates[i]
		if len(c.Summary) <= maxLen {
			continue
		}
		short, err := s.Summarize(ctx, c.Summary)
		if err != nil {
			errs = append(errs, fmt.Errorf("candidate %s: %w", c.ID, err))
			continue
		}
		c.Summary = short
	}
	return errs
}
