package scoring

import (
	"fmt"

	"github.com/jonathan/talent-pool/internal/llm"
	"github.com/jonathan/talent-pool/internal/screening"
)

// Scorer kinds accepted by New
const (
	KindSkills = "skills"
	KindLLM    = "llm"
)

// New builds the scorer named by kind. client is only required for KindLLM.
func New(kind string, role *RoleProfile, client llm.Client, tier llm.ModelTier) (screening.Scorer, error) {
	if role == nil {
		return nil, fmt.Errorf("role profile is required")
	}
	switch kind {
	case "", KindSkills:
		return NewSkillScorer(role), nil
	case KindLLM:
		if client == nil {
			return nil, fmt.Errorf("llm scorer requires an LLM client")
		}
		return NewLLMScorer(client, role, tier), nil
	default:
		return nil, fmt.Errorf("unknown scorer kind %q", kind)
	}
}
