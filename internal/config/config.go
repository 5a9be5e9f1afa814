// Package config provides configuration loading and validation for the
// talentpool server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scorer kinds
const (
	ScorerSkills = "skills"
	ScorerLLM    = "llm"
)

// Config is the talentpool configuration. It can be loaded from a JSON or
// YAML file; every field is optional and falls back to Default().
type Config struct {
	Port        int    `json:"port,omitempty" yaml:"port"`                 // HTTP listen port
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty" yaml:"api_key"`           // Gemini API key
	Role        string `json:"role,omitempty" yaml:"role"`                 // Path to the role profile
	Verbose     bool   `json:"verbose,omitempty" yaml:"verbose"`

	Screening ScreeningConfig `json:"screening" yaml:"screening"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
}

// ScreeningConfig tunes the batch orchestrator.
type ScreeningConfig struct {
	Concurrency        int      `json:"concurrency,omitempty" yaml:"concurrency"`
	ItemTimeout        Duration `json:"item_timeout,omitempty" yaml:"item_timeout"`
	ShortlistThreshold float64  `json:"shortlist_threshold,omitempty" yaml:"shortlist_threshold"`
	HistorySize        int      `json:"history_size,omitempty" yaml:"history_size"`
	Scorer             string   `json:"scorer,omitempty" yaml:"scorer"`
}

// EventsConfig sizes the in-memory event buffer.
type EventsConfig struct {
	BufferSize int    `json:"buffer_size,omitempty" yaml:"buffer_size"`
	LogFile    string `json:"log_file,omitempty" yaml:"log_file"` // append event lines here when set
}

// LLMConfig selects the model used by the llm scorer.
type LLMConfig struct {
	Tier        string  `json:"tier,omitempty" yaml:"tier"`
	Temperature float32 `json:"temperature,omitempty" yaml:"temperature"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port: 8080,
		Screening: ScreeningConfig{
			Concurrency:        4,
			ItemTimeout:        Duration(30 * time.Second),
			ShortlistThreshold: 0.7,
			HistorySize:        50,
			Scorer:             ScorerSkills,
		},
		Events: EventsConfig{BufferSize: 500},
		LLM:    LLMConfig{Tier: "lite", Temperature: 0.1},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by
// extension.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values. Zero values are
// allowed since MergeWithDefaults fills them.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	s := c.Screening
	if s.Concurrency < 0 {
		return fmt.Errorf("config error: 'screening.concurrency' must be non-negative")
	}
	if s.ItemTimeout < 0 {
		return fmt.Errorf("config error: 'screening.item_timeout' must be non-negative")
	}
	if s.ShortlistThreshold < 0 || s.ShortlistThreshold > 1 {
		return fmt.Errorf("config error: 'screening.shortlist_threshold' must be within [0, 1]")
	}
	if s.HistorySize < 0 {
		return fmt.Errorf("config error: 'screening.history_size' must be non-negative")
	}
	switch s.Scorer {
	case "", ScorerSkills, ScorerLLM:
	default:
		return fmt.Errorf("config error: unknown scorer %q", s.Scorer)
	}
	if s.Scorer == ScorerLLM && c.APIKey == "" {
		return fmt.Errorf("config error: the llm scorer needs 'api_key' or GEMINI_API_KEY")
	}
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("config error: 'events.buffer_size' must be non-negative")
	}
	if c.Role != "" {
		if _, err := os.Stat(c.Role); os.IsNotExist(err) {
			return fmt.Errorf("config error: role file not found: %s", c.Role)
		}
	}
	return nil
}

// MergeWithDefaults returns a copy of c with zero fields taken from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Role == "" {
		result.Role = defaults.Role
	}

	s, d := &result.Screening, defaults.Screening
	if s.Concurrency == 0 {
		s.Concurrency = d.Concurrency
	}
	if s.ItemTimeout == 0 {
		s.ItemTimeout = d.ItemTimeout
	}
	if s.ShortlistThreshold == 0 {
		s.ShortlistThreshold = d.ShortlistThreshold
	}
	if s.HistorySize == 0 {
		s.HistorySize = d.HistorySize
	}
	if s.Scorer == "" {
		s.Scorer = d.Scorer
	}

	if result.Events.BufferSize == 0 {
		result.Events.BufferSize = defaults.Events.BufferSize
	}
	if result.Events.LogFile == "" {
		result.Events.LogFile = defaults.Events.LogFile
	}
	if result.LLM.Tier == "" {
		result.LLM.Tier = defaults.LLM.Tier
	}
	if result.LLM.Temperature == 0 {
		result.LLM.Temperature = defaults.LLM.Temperature
	}

	// Bools cannot distinguish unset from false, so Verbose is not merged
	return result
}

// ApplyEnv overrides fields from environment variables: PORT, DATABASE_URL,
// GEMINI_API_KEY, TALENTPOOL_ROLE, TALENTPOOL_SCORER and
// TALENTPOOL_CONCURRENCY.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := getenv("TALENTPOOL_ROLE"); v != "" {
		c.Role = v
	}
	if v := getenv("TALENTPOOL_SCORER"); v != "" {
		c.Screening.Scorer = v
	}
	if v := getenv("TALENTPOOL_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TALENTPOOL_CONCURRENCY: %w", err)
		}
		c.Screening.Concurrency = n
	}
	return nil
}
