package cluster

import (
	"sort"

	"github.com/insiderradar/radar/internal/model"
)

// Detector computes the cluster-buy flag: concentrated buying by
// multiple distinct insiders in the same security within a day window.
type Detector struct {
	windowDays  int // ± days around each trade date, closed interval
	minInsiders int // distinct insiders required, counting the record's own
}

// New creates a detector. windowDays counts in both directions: a
// purchase 10 days before and one 10 days after both cluster with a
// 14-day window.
func New(windowDays, minInsiders int) *Detector {
	return &Detector{
		windowDays:  windowDays,
		minInsiders: minInsiders,
	}
}

// Flag recomputes cluster flags over one ticker's complete history and
// returns how many records were newly flagged. It must always see the
// full set, not just a run's additions: a new purchase can retroactively
// qualify an older one.
//
// Flags are monotonic. A record that is already true stays true even if
// the fresh computation alone would not flag it; everything but the
// flag is immutable once in the ledger.
func (d *Detector) Flag(records []*model.TradeRecord) int {
	if len(records) < d.minInsiders {
		return 0
	}

	// Work over a date-sorted view; the caller's slice order is part of
	// the ledger contract and must not change.
	sorted := make([]*model.TradeRecord, 0, len(records))
	for _, rec := range records {
		if rec.TradeDate.IsZero() {
			continue
		}
		sorted = append(sorted, rec)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeDate.Before(sorted[j].TradeDate.Time)
	})

	flagged := 0
	for i, rec := range sorted {
		if d.inCluster(sorted, i) && !rec.ClusterBuy {
			rec.ClusterBuy = true
			flagged++
		}
	}

	return flagged
}

// inCluster reports whether the record at index i has enough distinct
// insiders trading within the window around its trade date
func (d *Detector) inCluster(sorted []*model.TradeRecord, i int) bool {
	anchor := sorted[i]
	lo := anchor.TradeDate.AddDays(-d.windowDays)
	hi := anchor.TradeDate.AddDays(d.windowDays)

	insiders := map[string]struct{}{anchor.InsiderName: {}}

	// Walk outward from the anchor; the slice is date-sorted so each
	// direction stops at the first record outside the window.
	for j := i - 1; j >= 0; j-- {
		if sorted[j].TradeDate.Before(lo.Time) {
			break
		}
		insiders[sorted[j].InsiderName] = struct{}{}
	}
	for j := i + 1; j < len(sorted); j++ {
		if sorted[j].TradeDate.After(hi.Time) {
			break
		}
		insiders[sorted[j].InsiderName] = struct{}{}
	}

	return len(insiders) >= d.minInsiders
}
