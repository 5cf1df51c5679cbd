package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/insiderradar/radar/internal/ledger"
	"github.com/insiderradar/radar/internal/retention"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show artifact freshness and counts",
	Long: `Inspects the published artifacts without touching them.

Shows ledger size, snapshot trade count, how many trades carry the
cluster-buy flag, and how stale the snapshot is.

Example:
  go run ./cmd/radar status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	fmt.Println()
	PrintSeparator()
	fmt.Println("  Insider Radar status")
	PrintSeparator()

	store, err := ledger.Open(cfg.Data.LedgerPath(), log)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	clustered := 0
	for _, rec := range store.Records() {
		if rec.ClusterBuy {
			clustered++
		}
	}

	PrintKeyValue("Ledger", cfg.Data.LedgerPath(), 16)
	PrintKeyValue("Ledger records", fmt.Sprintf("%d", store.Len()), 16)
	PrintKeyValue("Cluster buys", fmt.Sprintf("%d", clustered), 16)

	data, err := os.ReadFile(cfg.Data.SnapshotPath())
	if os.IsNotExist(err) {
		PrintKeyValue("Snapshot", "not published yet", 16)
		PrintSeparator()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap retention.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	staleness := time.Since(snap.LastUpdated).Round(time.Minute)
	PrintKeyValue("Snapshot", cfg.Data.SnapshotPath(), 16)
	PrintKeyValue("Snapshot trades", fmt.Sprintf("%d", snap.TradeCount), 16)
	PrintKeyValue("Last updated", snap.LastUpdated.Format(time.RFC3339), 16)
	PrintKeyValue("Staleness", staleness.String(), 16)
	PrintSeparator()

	return nil
}
