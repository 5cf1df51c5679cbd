package jobs

import (
	"context"
	"fmt"

	"github.com/insiderradar/radar/internal/pipeline"
	"github.com/insiderradar/radar/pkg/config"
	"github.com/insiderradar/radar/pkg/logger"
)

// ScrapeJob runs one ingestion pipeline pass on a fixed schedule
type ScrapeJob struct {
	pipeline *pipeline.Pipeline
	config   *config.Config
	logger   *logger.Logger
}

// NewScrapeJob creates a new scrape job
func NewScrapeJob(p *pipeline.Pipeline, cfg *config.Config, log *logger.Logger) *ScrapeJob {
	return &ScrapeJob{
		pipeline: p,
		config:   cfg,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScrapeJob) Name() string {
	return "scrape"
}

// Schedule returns the cron schedule from config (every 2 hours by
// default)
func (j *ScrapeJob) Schedule() string {
	return j.config.ScrapeSchedule
}

// Run executes one pipeline run
func (j *ScrapeJob) Run(ctx context.Context) error {
	summary, err := j.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"appended":       summary.Appended,
		"duplicates":     summary.Duplicates,
		"snapshot_count": summary.SnapshotCount,
	}).Info("Scheduled scrape finished")

	return nil
}
