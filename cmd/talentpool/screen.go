package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/talent-pool/internal/candidates"
	"github.com/jonathan/talent-pool/internal/ingestion"
	"github.com/jonathan/talent-pool/internal/observability"
	"github.com/jonathan/talent-pool/internal/talentpool"
	"github.com/jonathan/talent-pool/internal/types"
)

var (
	screenFeed    string
	screenOut     string
	screenScorer  string
	screenRole    string
	screenConfig  string
	screenTimeout time.Duration
	screenVerbose bool
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen a candidate feed offline",
	Long: `Load a candidate feed into an in-memory pool, screen every pending
candidate in one batch and write the batch and the screened candidates as JSON.`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringVarP(&screenFeed, "feed", "f", "", "Path to the candidate feed JSON (required)")
	screenCmd.Flags().StringVarP(&screenOut, "out", "o", "", "Output JSON path (required)")
	screenCmd.Flags().StringVar(&screenScorer, "scorer", "", "Scorer to use: skills or llm")
	screenCmd.Flags().StringVar(&screenRole, "role", "", "Path to the role profile")
	screenCmd.Flags().StringVar(&screenConfig, "config", "", "Path to a JSON or YAML config file")
	screenCmd.Flags().DurationVar(&screenTimeout, "timeout", 10*time.Minute, "Maximum time to wait for the batch")
	screenCmd.Flags().BoolVarP(&screenVerbose, "verbose", "v", false, "Print the batch, shortlist and folders")

	if err := screenCmd.MarkFlagRequired("feed"); err != nil {
		panic(fmt.Sprintf("failed to mark feed flag as required: %v", err))
	}
	if err := screenCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}
	rootCmd.AddCommand(screenCmd)
}

// ScreenReport is the JSON written by the screen command.
type ScreenReport struct {
	Batch      types.Batch        `json:"batch"`
	Summary    types.BatchSummary `json:"summary"`
	Candidates []types.Candidate  `json:"candidates"`
}

func runScreen(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(screenConfig, nil)
	if err != nil {
		return err
	}
	if screenScorer != "" {
		cfg.Screening.Scorer = screenScorer
	}
	if screenRole != "" {
		cfg.Role = screenRole
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), screenTimeout)
	defer cancel()

	scorer, closer, err := buildScorer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	feed, err := ingestion.LoadFeed(screenFeed)
	if err != nil {
		return err
	}

	engine := talentpool.New(scorer, engineOptions(cfg))
	if _, err := engine.LoadFeed(feed); err != nil {
		return err
	}

	started, err := engine.ScreenPending(ctx)
	if err != nil {
		return err
	}
	batch, err := engine.Screening.Wait(ctx, started.ID)
	if err != nil {
		_ = engine.Shutdown(context.Background())
		return fmt.Errorf("batch %s did not finish: %w", started.ID, err)
	}

	report := ScreenReport{
		Batch:      batch,
		Summary:    batch.Summary(),
		Candidates: engine.Query(candidates.Filter{}, candidates.Sort{Field: candidates.SortByScore, Desc: true}),
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(screenOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if screenVerbose || cfg.Verbose {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintBatch(&batch)
		printer.PrintShortlist(report.Candidates)
		printer.PrintFolders(engine.Folders.List())
	}

	s := report.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "Batch %s %s: %d screened, %d failed, %d already screened\n",
		batch.ID, batch.State, s.Succeeded, s.Failed, s.AlreadyScreened)
	return nil
}
