// Package screening runs batches of candidates through an external scorer
// with bounded concurrency, tracks per-candidate outcomes, and reconciles
// them into the candidate store.
package screening

import (
	"context"

	"github.com/jonathan/talent-pool/internal/types"
)

// Score is what a scorer returns for one candidate. Outcome may be left
// empty, in which case the orchestrator's Policy decides it from Value.
type Score struct {
	Value   float64
	Outcome types.ScreeningStatus
}

// Scorer is the opaque, possibly slow and possibly failing scoring capability.
type Scorer interface {
	Score(ctx context.Context, candidate types.Candidate) (Score, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, candidate types.Candidate) (Score, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, candidate types.Candidate) (Score, error) {
	return f(ctx, candidate)
}

// Policy maps a numeric score onto a terminal screening status.
type Policy interface {
	Decide(score float64) types.ScreeningStatus
}

// ThresholdPolicy shortlists candidates scoring at or above Shortlist.
type ThresholdPolicy struct {
	Shortlist float64
}

// DefaultShortlistThreshold is used when no threshold is configured.
const DefaultShortlistThreshold = 0.7

// Decide implements Policy.
func (p ThresholdPolicy) Decide(score float64) types.ScreeningStatus {
	if score >= p.Shortlist {
		return types.StatusShortlisted
	}
	return types.StatusRejected
}

// resolveOutcome keeps a scorer-provided terminal outcome and otherwise
// falls back to the policy.
func resolveOutcome(s Score, policy Policy) types.ScreeningStatus {
	switch s.Outcome {
	case types.StatusShortlisted, types.StatusRejected:
		return s.Outcome
	default:
		return policy.Decide(s.Value)
	}
}
