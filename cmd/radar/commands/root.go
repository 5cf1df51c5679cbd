package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insiderradar/radar/internal/ledger"
	"github.com/insiderradar/radar/internal/openinsider"
	"github.com/insiderradar/radar/internal/pipeline"
	"github.com/insiderradar/radar/pkg/config"
	"github.com/insiderradar/radar/pkg/database"
	"github.com/insiderradar/radar/pkg/httputil"
	"github.com/insiderradar/radar/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Insider Radar - insider purchase ingestion pipeline",
	Long: `Insider Radar CLI

Tracks disclosed insider open-market purchases from the OpenInsider
screener: normalizes them, deduplicates against an append-only history
ledger, detects cluster buys, and publishes a bounded snapshot for the
dashboard.

Usage:
  go run ./cmd/radar [command]

Examples:
  go run ./cmd/radar run
  go run ./cmd/radar backfill --pages 5
  go run ./cmd/radar schedule
  go run ./cmd/radar status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// bootstrap loads config and builds the logger shared by all commands
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}

// buildPipeline wires the full ingestion pipeline. The returned cleanup
// function closes the database pool when a mirror is configured.
func buildPipeline(cfg *config.Config, log *logger.Logger) (*pipeline.Pipeline, func(), error) {
	httpClient := httputil.New(cfg, log)
	source := openinsider.NewClient(cfg, httpClient, log)
	p := pipeline.New(cfg, source, log)

	cleanup := func() {}

	if cfg.Database.Enabled() {
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database mirror: %w", err)
		}

		mirror := ledger.NewMirror(db.Pool)
		if err := mirror.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensure mirror schema: %w", err)
		}
		p.WithMirror(mirror)
		cleanup = db.Close

		log.Info("Database mirror enabled")
	}

	return p, cleanup, nil
}
