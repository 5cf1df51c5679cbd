package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill history from the screener archive",
	Long: `Walks the screener pages back through the configured lookback
period and merges everything into the history ledger. Pagination stops
early once a page comes back empty.

Intended as a one-time bootstrap; regular runs only need page one.

Example:
  go run ./cmd/radar backfill
  go run ./cmd/radar backfill --pages 3`,
	RunE: runBackfill,
}

var (
	// Backfill flags
	backfillPages int
)

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().IntVar(&backfillPages, "pages", 0, "max pages to fetch (default from config)")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	pages := backfillPages
	if pages <= 0 {
		pages = cfg.Source.MaxPages
	}

	p, cleanup, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Backfilling up to %d screener pages...\n", pages)

	summary, err := p.RunBackfill(context.Background(), pages)
	if err != nil {
		PrintError(fmt.Sprintf("Backfill failed: %v", err))
		return err
	}

	printSummary(summary)
	return nil
}
