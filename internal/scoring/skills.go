package scoring

import (
	"context"
	"strings"

	"github.com/jonathan/talent-pool/internal/screening"
	"github.com/jonathan/talent-pool/internal/types"
)

// Weights for the skill heuristic
const (
	requiredWeight  = 0.6
	preferredWeight = 0.25
	keywordWeight   = 0.15
)

// SkillScorer rates candidates by how much of a role's skill list they
// cover. It is deterministic and never fails, which makes it the default
// offline scorer.
type SkillScorer struct {
	required  map[string]struct{}
	preferred map[string]struct{}
	keywords  []string
}

// NewSkillScorer builds a scorer for role.
func NewSkillScorer(role *RoleProfile) *SkillScorer {
	s := &SkillScorer{
		required:  toSet(role.RequiredSkills),
		preferred: toSet(role.PreferredSkills),
	}
	for _, k := range role.Keywords {
		if n := normalizeSkill(k); n != "" {
			s.keywords = append(s.keywords, n)
		}
	}
	return s
}

// Score implements screening.Scorer.
func (s *SkillScorer) Score(ctx context.Context, c types.Candidate) (screening.Score, error) {
	if err := ctx.Err(); err != nil {
		return screening.Score{}, err
	}

	have := toSet(c.Skills)
	score := requiredWeight*overlap(have, s.required) +
		preferredWeight*overlap(have, s.preferred) +
		keywordWeight*s.keywordOverlap(c)

	// Redistribute the weight of sections the role leaves empty
	total := requiredWeight
	if len(s.preferred) > 0 {
		total += preferredWeight
	}
	if len(s.keywords) > 0 {
		total += keywordWeight
	}
	return screening.Score{Value: score / total}, nil
}

func (s *SkillScorer) keywordOverlap(c types.Candidate) float64 {
	if len(s.keywords) == 0 {
		return 0
	}
	text := normalizeSkill(strings.Join([]string{c.Position, c.Summary, strings.Join(c.Skills, " ")}, " "))
	hits := 0
	for _, k := range s.keywords {
		if strings.Contains(text, k) {
			hits++
		}
	}
	return float64(hits) / float64(len(s.keywords))
}

func overlap(have, want map[string]struct{}) float64 {
	if len(want) == 0 {
		return 0
	}
	hits := 0
	for k := range want {
		if _, ok := have[k]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

func toSet(skills []string) map[string]struct{} {
	out := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if n := normalizeSkill(s); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}
