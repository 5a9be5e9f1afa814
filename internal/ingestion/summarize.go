package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/talent-pool/internal/llm"
	"github.com/jonathan/talent-pool/internal/prompts"
)

// LLMSummarizer condenses résumé text with a language model.
type LLMSummarizer struct {
	Client llm.Client
	Tier   llm.ModelTier
}

// Summarize implements Summarizer.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	tier := s.Tier
	if tier == "" {
		tier = llm.TierLite
	}
	prompt := prompts.Format(prompts.MustGet("screening.json", "summarize-candidate"), map[string]string{
		"Text": text,
	})

	out, err := s.Client.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	out = CleanText(out)
	if out == "" {
		return "", fmt.Errorf("failed to summarize: empty response")
	}
	return strings.TrimSpace(out), nil
}
