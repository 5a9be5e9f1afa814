package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/talent-pool/internal/db"
	"github.com/jonathan/talent-pool/internal/ingestion"
	"github.com/jonathan/talent-pool/internal/llm"
	"github.com/jonathan/talent-pool/internal/talentpool"
)

var (
	ingestFeed       string
	ingestDBURL      string
	ingestConfig     string
	ingestSummarize  bool
	ingestSummaryMax int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a candidate feed into the database",
	Long: `Validate a JSON candidate feed and merge it into the talent pool stored in
PostgreSQL. Folders named by the feed are created when missing. With
--summarize, summaries longer than --summary-max are shortened by the LLM.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFeed, "feed", "f", "", "Path to the candidate feed JSON (required)")
	ingestCmd.Flags().StringVar(&ingestDBURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")
	ingestCmd.Flags().StringVar(&ingestConfig, "config", "", "Path to a JSON or YAML config file")
	ingestCmd.Flags().BoolVar(&ingestSummarize, "summarize", false, "Shorten long summaries with the LLM")
	ingestCmd.Flags().IntVar(&ingestSummaryMax, "summary-max", 600, "Summary length above which --summarize applies")

	if err := ingestCmd.MarkFlagRequired("feed"); err != nil {
		panic(fmt.Sprintf("failed to mark feed flag as required: %v", err))
	}
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadSettings(ingestConfig, nil)
	if err != nil {
		return err
	}
	if ingestDBURL != "" {
		cfg.DatabaseURL = ingestDBURL
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("a database is required: pass --database-url or set DATABASE_URL")
	}

	feed, err := ingestion.LoadFeed(ingestFeed)
	if err != nil {
		return err
	}

	if ingestSummarize {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer client.Close() //nolint:errcheck

		for _, serr := range feed.ShortenSummaries(ctx, &ingestion.LLMSummarizer{Client: client}, ingestSummaryMax) {
			log.Printf("[ingest] Warning: %v", serr)
		}
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		return err
	}

	// Ingest never screens, so the engine runs without a scorer
	engine := talentpool.New(nil, engineOptions(cfg))
	if err := hydrate(ctx, database, engine); err != nil {
		return err
	}

	res, err := engine.LoadFeed(feed)
	if err != nil {
		return err
	}

	folders, cands := engine.Snapshot()
	if err := database.SaveSnapshot(ctx, folders, cands); err != nil {
		return fmt.Errorf("failed to save talent pool: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s: %d created, %d updated (%d candidates in %d folders)\n",
		ingestFeed, res.Created, res.Updated, len(cands), len(folders))
	return nil
}
