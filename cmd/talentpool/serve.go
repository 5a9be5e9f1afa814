package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/talent-pool/internal/db"
	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/server"
	"github.com/jonathan/talent-pool/internal/server/ratelimit"
	"github.com/jonathan/talent-pool/internal/talentpool"
)

var (
	servePort   int
	serveConfig string
	serveRole   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the talent pool over REST.

When DATABASE_URL is set the pool is loaded from PostgreSQL on startup and
written back on shutdown, and every finished batch is recorded.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to a JSON or YAML config file")
	serveCmd.Flags().StringVar(&serveRole, "role", "", "Path to the role profile (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(serveConfig, nil)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveRole != "" {
		cfg.Role = serveRole
	}

	ctx := cmd.Context()

	scorer, scorerCloser, err := buildScorer(ctx, cfg)
	if err != nil {
		return err
	}
	defer scorerCloser.Close() //nolint:errcheck

	eventLog, logCloser, err := openEventLog(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close() //nolint:errcheck

	var (
		database *db.DB
		recorder *db.BatchRecorder
		extra    []events.Notifier
	)
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		recorder = db.NewBatchRecorder(database, 0)
		extra = append(extra, recorder)
	}

	opts := engineOptions(cfg, extra...)
	opts.EventLogger = eventLog
	engine := talentpool.New(scorer, opts)

	if database != nil {
		if err := hydrate(ctx, database, engine); err != nil {
			return err
		}
	}

	rl := ratelimit.LoadConfig(nil)
	srv := server.New(engine, server.Config{
		Port:      cfg.Port,
		RateLimit: rl,
		OnShutdown: func(ctx context.Context) error {
			if database == nil {
				return nil
			}
			recorder.Flush()
			folders, cands := engine.Snapshot()
			if err := database.SaveSnapshot(ctx, folders, cands); err != nil {
				return fmt.Errorf("failed to save talent pool: %w", err)
			}
			log.Printf("[serve] Saved %d folders and %d candidates", len(folders), len(cands))
			return nil
		},
	})

	log.Printf("[serve] Screening with the %s scorer (concurrency %d)", cfg.Screening.Scorer, cfg.Screening.Concurrency)
	return srv.Start()
}

// hydrate loads the persisted pool into the engine.
func hydrate(ctx context.Context, database *db.DB, engine *talentpool.Engine) error {
	folders, err := database.LoadFolders(ctx)
	if err != nil {
		return err
	}
	cands, err := database.LoadCandidates(ctx)
	if err != nil {
		return err
	}
	if len(folders) == 0 && len(cands) == 0 {
		return nil
	}
	if err := engine.Hydrate(folders, cands); err != nil {
		return fmt.Errorf("failed to load talent pool: %w", err)
	}
	log.Printf("[serve] Loaded %d folders and %d candidates", len(folders), len(cands))
	return nil
}
