package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/talent-pool/internal/llm"
	"github.com/jonathan/talent-pool/internal/prompts"
	"github.com/jonathan/talent-pool/internal/screening"
	"github.com/jonathan/talent-pool/internal/types"
)

// llmJudgeResponse is the JSON the model is asked to return.
type llmJudgeResponse struct {
	FitScore  *float64 `json:"fit_score"`
	Decision  string   `json:"decision"`
	Reasoning string   `json:"reasoning"`
}

// LLMScorer asks a language model to judge candidate fit for a role.
type LLMScorer struct {
	client llm.Client
	role   *RoleProfile
	tier   llm.ModelTier
}

// NewLLMScorer creates an LLM-backed scorer.
func NewLLMScorer(client llm.Client, role *RoleProfile, tier llm.ModelTier) *LLMScorer {
	if tier == "" {
		tier = llm.TierLite
	}
	return &LLMScorer{client: client, role: role, tier: tier}
}

// Score implements screening.Scorer. Transport and parse errors are returned
// as-is so the orchestrator records them as per-candidate failures.
func (s *LLMScorer) Score(ctx context.Context, c types.Candidate) (screening.Score, error) {
	jsonResp, err := s.client.GenerateJSON(ctx, s.buildPrompt(c), s.tier)
	if err != nil {
		return screening.Score{}, fmt.Errorf("LLM generation failed: %w", err)
	}
	jsonResp = llm.CleanJSONBlock(jsonResp)

	var resp llmJudgeResponse
	if err := json.Unmarshal([]byte(jsonResp), &resp); err != nil {
		return screening.Score{}, fmt.Errorf("failed to parse LLM response: %w (content: %s)", err, jsonResp)
	}
	if resp.FitScore == nil {
		return screening.Score{}, fmt.Errorf("LLM response is missing fit_score (content: %s)", jsonResp)
	}

	out := screening.Score{Value: llm.ClampUnit(*resp.FitScore)}
	switch status := types.ScreeningStatus(strings.ToLower(strings.TrimSpace(resp.Decision))); status {
	case types.StatusShortlisted, types.StatusRejected:
		out.Outcome = status
	}
	return out, nil
}

func (s *LLMScorer) buildPrompt(c types.Candidate) string {
	template := prompts.MustGet("screening.json", "judge-candidate-fit")
	return prompts.Format(template, map[string]string{
		"RoleTitle":       orNotSpecified(s.role.Title),
		"RequiredSkills":  orNotSpecified(strings.Join(s.role.RequiredSkills, ", ")),
		"PreferredSkills": orNotSpecified(strings.Join(s.role.PreferredSkills, ", ")),
		"Keywords":        orNotSpecified(strings.Join(s.role.Keywords, ", ")),
		"Name":            orNotSpecified(c.Name),
		"Position":        orNotSpecified(c.Position),
		"Company":         orNotSpecified(c.Company),
		"Skills":          orNotSpecified(strings.Join(c.Skills, ", ")),
		"Summary":         orNotSpecified(c.Summary),
	})
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
