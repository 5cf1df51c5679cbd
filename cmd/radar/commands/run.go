package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insiderradar/radar/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one ingestion run",
	Long: `Fetches the latest screener page, normalizes and deduplicates the
rows against the history ledger, recomputes cluster-buy flags for
affected tickers, and atomically publishes history.csv and latest.json.

Safe to re-run: an unchanged feed appends nothing and only refreshes
the snapshot timestamp.

Example:
  go run ./cmd/radar run`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := p.Run(context.Background())
	if err != nil {
		PrintError(fmt.Sprintf("Run failed: %v", err))
		return err
	}

	printSummary(summary)
	return nil
}

// printSummary renders a run summary to stdout
func printSummary(summary *pipeline.RunSummary) {
	fmt.Println()
	PrintSeparator()
	fmt.Println("  Ingestion run")
	PrintSeparator()
	PrintKeyValue("Fetched", fmt.Sprintf("%d", summary.Fetched), 18)
	PrintKeyValue("Accepted", fmt.Sprintf("%d", summary.Accepted), 18)
	PrintKeyValue("Rejected", formatRejections(summary), 18)
	PrintKeyValue("Appended", fmt.Sprintf("%d", summary.Appended), 18)
	PrintKeyValue("Duplicates", fmt.Sprintf("%d", summary.Duplicates), 18)
	PrintKeyValue("Affected tickers", fmt.Sprintf("%d", summary.AffectedTickers), 18)
	PrintKeyValue("New cluster flags", fmt.Sprintf("%d", summary.NewClusterFlags), 18)
	PrintKeyValue("Ledger size", fmt.Sprintf("%d", summary.LedgerSize), 18)
	PrintKeyValue("Snapshot trades", fmt.Sprintf("%d", summary.SnapshotCount), 18)
	PrintKeyValue("Duration", summary.Duration.String(), 18)
	PrintSeparator()
	PrintSuccess("Run completed")
}

func formatRejections(summary *pipeline.RunSummary) string {
	total := summary.RejectedTotal()
	if total == 0 {
		return "0"
	}

	parts := make([]string, 0, len(summary.Rejected))
	for reason, n := range summary.Rejected {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, ", "))
}
