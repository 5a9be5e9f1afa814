package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"port": 9090,
		"database_url": "postgres://localhost/talent",
		"screening": {"concurrency": 8, "item_timeout": "45s", "scorer": "skills"},
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://localhost/talent", cfg.DatabaseURL)
	assert.Equal(t, 8, cfg.Screening.Concurrency)
	assert.Equal(t, 45*time.Second, cfg.Screening.ItemTimeout.Std())
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
port: 7070
screening:
  item_timeout: 10
  shortlist_threshold: 0.6
events:
  buffer_size: 50
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Screening.ItemTimeout.Std())
	assert.InDelta(t, 0.6, cfg.Screening.ShortlistThreshold, 1e-9)
	assert.Equal(t, 50, cfg.Events.BufferSize)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "config path is empty")

	_, err = LoadConfig("/nonexistent/path/config.json")
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeFile(t, "bad.json", `{ invalid json }`))
	assert.ErrorContains(t, err, "failed to parse config JSON")

	_, err = LoadConfig(writeFile(t, "bad.yml", "port: [1"))
	assert.ErrorContains(t, err, "failed to parse config YAML")

	_, err = LoadConfig(writeFile(t, "dur.json", `{"screening": {"item_timeout": "soon"}}`))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Default(), ""},
		{"zero config", Config{}, ""},
		{"bad port", Config{Port: 70000}, "port"},
		{"negative concurrency", Config{Screening: ScreeningConfig{Concurrency: -1}}, "concurrency"},
		{"threshold range", Config{Screening: ScreeningConfig{ShortlistThreshold: 1.5}}, "shortlist_threshold"},
		{"unknown scorer", Config{Screening: ScreeningConfig{Scorer: "magic"}}, "unknown scorer"},
		{"llm without key", Config{Screening: ScreeningConfig{Scorer: ScorerLLM}}, "api_key"},
		{"llm with key", Config{APIKey: "k", Screening: ScreeningConfig{Scorer: ScorerLLM}}, ""},
		{"missing role file", Config{Role: "/nonexistent/role.yaml"}, "role file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		Port:      9000,
		Screening: ScreeningConfig{Concurrency: 2},
	}

	merged := cfg.MergeWithDefaults(Default())
	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, 2, merged.Screening.Concurrency)
	assert.Equal(t, 30*time.Second, merged.Screening.ItemTimeout.Std())
	assert.Equal(t, 50, merged.Screening.HistorySize)
	assert.Equal(t, ScorerSkills, merged.Screening.Scorer)
	assert.Equal(t, 500, merged.Events.BufferSize)
	assert.Equal(t, "lite", merged.LLM.Tier)

	// original untouched
	assert.Equal(t, 0, cfg.Screening.HistorySize)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                   "8181",
		"DATABASE_URL":           "postgres://db",
		"GEMINI_API_KEY":         "secret",
		"TALENTPOOL_SCORER":      "llm",
		"TALENTPOOL_CONCURRENCY": "6",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "postgres://db", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, ScorerLLM, cfg.Screening.Scorer)
	assert.Equal(t, 6, cfg.Screening.Concurrency)

	env["PORT"] = "eighty"
	assert.Error(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
}

func TestDuration_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(ScreeningConfig{ItemTimeout: Duration(90 * time.Second)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"item_timeout":"1m30s"`)
}
