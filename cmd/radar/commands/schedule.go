package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/insiderradar/radar/internal/scheduler"
	"github.com/insiderradar/radar/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scrape job on its cron schedule",
	Long: `Starts the scheduler daemon and runs the ingestion pipeline on the
configured cron schedule (SCRAPE_SCHEDULE, every 2 hours by default).

Overlapping invocations are skipped: at most one pipeline run executes
at a time. Stop with Ctrl+C.

Example:
  go run ./cmd/radar schedule
  SCRAPE_SCHEDULE="0 30 * * * *" go run ./cmd/radar schedule`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewScrapeJob(p, cfg, log)); err != nil {
		return fmt.Errorf("register scrape job: %w", err)
	}

	sched.Start()
	fmt.Printf("Scheduler started (schedule: %s). Ctrl+C to stop.\n", cfg.ScrapeSchedule)

	// Block until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	sched.Stop()
	return nil
}
