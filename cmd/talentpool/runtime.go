package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jonathan/talent-pool/internal/config"
	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/llm"
	"github.com/jonathan/talent-pool/internal/screening"
	"github.com/jonathan/talent-pool/internal/scoring"
	"github.com/jonathan/talent-pool/internal/talentpool"
)

// loadSettings reads the optional config file, fills defaults and applies
// environment overrides.
func loadSettings(path string, getenv func(string) string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	merged := cfg.MergeWithDefaults(config.Default())
	if err := merged.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// buildScorer loads the role profile and constructs the configured scorer.
// The returned closer releases the LLM client, if one was created.
func buildScorer(ctx context.Context, cfg *config.Config) (screening.Scorer, io.Closer, error) {
	if cfg.Role == "" {
		return nil, nil, fmt.Errorf("a role profile is required: pass --role or set TALENTPOOL_ROLE")
	}
	role, err := scoring.LoadRoleProfile(cfg.Role)
	if err != nil {
		return nil, nil, err
	}

	tier, err := llm.ParseTier(cfg.LLM.Tier)
	if err != nil {
		return nil, nil, err
	}

	var client llm.Client
	if cfg.Screening.Scorer == config.ScorerLLM {
		llmCfg := llm.DefaultConfig()
		llmCfg.Temperature = cfg.LLM.Temperature
		client, err = llm.NewClient(ctx, llmCfg, cfg.APIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
	}

	scorer, err := scoring.New(cfg.Screening.Scorer, role, client, tier)
	if err != nil {
		if client != nil {
			client.Close() //nolint:errcheck
		}
		return nil, nil, err
	}
	if client == nil {
		return scorer, io.NopCloser(nil), nil
	}
	return scorer, client, nil
}

// engineOptions maps the config onto engine options.
func engineOptions(cfg *config.Config, notifiers ...events.Notifier) talentpool.Options {
	return talentpool.Options{
		Screening: screening.Options{
			Concurrency: cfg.Screening.Concurrency,
			ItemTimeout: cfg.Screening.ItemTimeout.Std(),
			HistorySize: cfg.Screening.HistorySize,
			Policy:      screening.ThresholdPolicy{Shortlist: cfg.Screening.ShortlistThreshold},
		},
		EventBufferSize: cfg.Events.BufferSize,
		Notifiers:       notifiers,
	}
}

// openEventLog opens the append-only event log named in the config. It
// returns a nil logger when none is configured.
func openEventLog(cfg *config.Config) (*log.Logger, io.Closer, error) {
	if cfg.Events.LogFile == "" {
		return nil, io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(cfg.Events.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return log.New(f, "", log.LstdFlags), f, nil
}
