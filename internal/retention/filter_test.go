package retention

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderradar/radar/internal/model"
)

func tradeOn(date model.Date, insider string) *model.TradeRecord {
	return &model.TradeRecord{
		FilingDate:  date.AddDays(1),
		TradeDate:   date,
		Ticker:      "ACME",
		InsiderName: insider,
		Price:       10,
		Qty:         10000,
		Value:       100000,
	}
}

func TestRetentionBoundary(t *testing.T) {
	now := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)
	today := model.DateOf(now)

	onBoundary := tradeOn(today.AddDays(-1000), "Doe Jane")
	tooOld := tradeOn(today.AddDays(-1001), "Roe Richard")
	recent := tradeOn(today.AddDays(-1), "Poe Alex")

	records := []*model.TradeRecord{onBoundary, tooOld, recent}
	snap := Build(records, 1000, now)

	require.Equal(t, 2, snap.TradeCount)
	assert.Equal(t, "Doe Jane", snap.Trades[0].InsiderName, "record exactly retention_days old is included")
	assert.Equal(t, "Poe Alex", snap.Trades[1].InsiderName)

	// The ledger input is untouched
	assert.Len(t, records, 3)
}

func TestTradeCountMatchesArrayLength(t *testing.T) {
	now := time.Now()
	snap := Build([]*model.TradeRecord{
		tradeOn(model.DateOf(now), "Doe Jane"),
		tradeOn(model.DateOf(now).AddDays(-3), "Roe Richard"),
	}, 1000, now)

	assert.Equal(t, len(snap.Trades), snap.TradeCount)
}

func TestOverflowSentinelExcluded(t *testing.T) {
	now := time.Now()

	ok := tradeOn(model.DateOf(now), "Doe Jane")
	overflowed := tradeOn(model.DateOf(now), "Roe Richard")
	overflowed.Value = model.ValueOverflowSentinel

	snap := Build([]*model.TradeRecord{ok, overflowed}, 1000, now)

	require.Equal(t, 1, snap.TradeCount)
	assert.Equal(t, "Doe Jane", snap.Trades[0].InsiderName)
}

func TestEmptyLedgerYieldsEmptySnapshot(t *testing.T) {
	snap := Build(nil, 1000, time.Now())

	assert.Equal(t, 0, snap.TradeCount)
	assert.NotNil(t, snap.Trades, "trades must encode as [] rather than null")

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"trades":[]`)
}

func TestSnapshotJSONShape(t *testing.T) {
	now := time.Date(2026, time.August, 23, 14, 30, 5, 123456789, time.UTC)
	snap := Build([]*model.TradeRecord{tradeOn(model.NewDate(2026, time.August, 20), "Doe Jane")}, 1000, now)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "2026-08-23T14:30:05Z", decoded["last_updated"], "second precision, UTC")
	assert.Equal(t, float64(1), decoded["trade_count"])

	trades := decoded["trades"].([]interface{})
	first := trades[0].(map[string]interface{})
	assert.Equal(t, "2026-08-20", first["trade_date"])
	assert.Equal(t, false, first["cluster_buy"])
}
