package retention

import (
	"time"

	"github.com/insiderradar/radar/internal/model"
)

// Snapshot is the published artifact consumed by the dashboard. It is
// fully replaced on every run and holds no state the ledger does not.
type Snapshot struct {
	LastUpdated time.Time           `json:"last_updated"`
	TradeCount  int                 `json:"trade_count"`
	Trades      []model.TradeRecord `json:"trades"`
}

// Build selects the ledger records whose trade date falls within the
// trailing retentionDays window ending at now, preserving ledger order.
// A record dated exactly retentionDays ago is included; one day older
// is not. Pure: the input records are only read.
//
// Rows carrying OpenInsider's int32 overflow sentinel as value stay in
// the ledger but are not published.
func Build(records []*model.TradeRecord, retentionDays int, now time.Time) *Snapshot {
	cutoff := model.DateOf(now).AddDays(-retentionDays)

	trades := make([]model.TradeRecord, 0, len(records))
	for _, rec := range records {
		if rec.TradeDate.Before(cutoff.Time) {
			continue
		}
		if rec.Value >= model.ValueOverflowSentinel {
			continue
		}
		trades = append(trades, *rec)
	}

	return &Snapshot{
		LastUpdated: now.UTC().Truncate(time.Second),
		TradeCount:  len(trades),
		Trades:      trades,
	}
}
