// Package scoring provides the concrete Scorer implementations used by the
// screening orchestrator.
package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/talent-pool/internal/schemas"
	"github.com/jonathan/talent-pool/internal/types"
)

// RoleProfile describes the role candidates are screened against.
type RoleProfile struct {
	Title           string   `json:"title" yaml:"title" validate:"required"`
	RequiredSkills  []string `json:"required_skills" yaml:"required_skills" validate:"required,min=1,dive,required"`
	PreferredSkills []string `json:"preferred_skills,omitempty" yaml:"preferred_skills"`
	Keywords        []string `json:"keywords,omitempty" yaml:"keywords"`
}

// Validate checks the profile's struct tags.
func (r *RoleProfile) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return &types.ValidationError{Field: "role", Message: err.Error()}
	}
	return nil
}

// LoadRoleProfile reads a profile from a JSON or YAML file.
func LoadRoleProfile(path string) (*RoleProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role profile: %w", err)
	}

	var role RoleProfile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &role)
	default:
		if verr := schemas.Validate(schemas.RoleProfile, data); verr != nil {
			return nil, &types.ValidationError{Field: "role", Message: verr.Error()}
		}
		err = json.Unmarshal(data, &role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse role profile: %w", err)
	}
	if err := role.Validate(); err != nil {
		return nil, err
	}
	return &role, nil
}

// normalizeSkill folds a skill name for comparison.
func normalizeSkill(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
