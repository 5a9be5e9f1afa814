// Package llm wraps the language-model provider used to score candidates.
package llm

import "fmt"

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for cheap per-candidate judgements
	TierLite ModelTier = "lite"
	// TierStandard is for judgements that need more context
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the hardest calls
	TierAdvanced ModelTier = "advanced"
)

// ParseTier converts a config string into a ModelTier.
func ParseTier(raw string) (ModelTier, error) {
	switch ModelTier(raw) {
	case "":
		return TierLite, nil
	case TierLite, TierStandard, TierAdvanced:
		return ModelTier(raw), nil
	default:
		return "", fmt.Errorf("unknown model tier %q", raw)
	}
}

// Provider represents an LLM provider.
type Provider string

// ProviderGemini is the Google Gemini provider, the only one wired today.
const ProviderGemini Provider = "gemini"

// Config holds the model configuration.
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.1,
	}
}

// GetModel returns the model name for a tier, falling back to standard and
// then lite.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c with model assigned to tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}
