package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insiderradar/radar/internal/model"
	"github.com/insiderradar/radar/pkg/logger"
)

func sampleRecord(ticker, insider string, day int) *model.TradeRecord {
	return &model.TradeRecord{
		FilingDate:  model.NewDate(2026, time.August, day+1),
		TradeDate:   model.NewDate(2026, time.August, day),
		Ticker:      ticker,
		Company:     ticker + " Corp",
		InsiderName: insider,
		Title:       "CEO",
		TradeType:   "P - Purchase",
		Price:       10.5,
		Qty:         10000,
		Owned:       50000,
		DeltaOwn:    "+25%",
		Value:       105000,
	}
}

func TestOpenMissingFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")

	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestAppendAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)

	rec := sampleRecord("ACME", "Doe Jane", 10)
	require.NoError(t, s.Append(rec))

	assert.True(t, s.Contains(rec.Identity()))
	assert.Equal(t, 1, s.Len())

	// Second append with the same identity must fail
	dup := sampleRecord("ACME", "Doe Jane", 10)
	assert.Error(t, s.Append(dup))
	assert.Equal(t, 1, s.Len())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)

	first := sampleRecord("ACME", "Doe Jane", 10)
	second := sampleRecord("ACME", "Roe Richard", 12)
	second.ClusterBuy = true
	third := sampleRecord("ZETA", "Poe Alex", 5)

	require.NoError(t, s.Append(first))
	require.NoError(t, s.Append(second))
	require.NoError(t, s.Append(third))
	require.NoError(t, s.Save())

	reloaded, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.Len())

	// Insertion order preserved
	records := reloaded.Records()
	assert.Equal(t, "Doe Jane", records[0].InsiderName)
	assert.Equal(t, "Roe Richard", records[1].InsiderName)
	assert.Equal(t, "ZETA", records[2].Ticker)

	// Field round trip, including the derived flag
	assert.Equal(t, 10.5, records[0].Price)
	assert.Equal(t, int64(10000), records[0].Qty)
	assert.Equal(t, "+25%", records[0].DeltaOwn)
	assert.True(t, records[1].ClusterBuy)
	assert.False(t, records[0].ClusterBuy)

	assert.True(t, reloaded.Contains(first.Identity()))
}

func TestNoIdentityDuplicatesAfterReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)

	rec := sampleRecord("ACME", "Doe Jane", 10)
	require.NoError(t, s.Append(rec))
	require.NoError(t, s.Save())

	// Re-observing the same disclosure on a later run must be a no-op
	reloaded, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	assert.True(t, reloaded.Contains(rec.Identity()))
	assert.Error(t, reloaded.Append(sampleRecord("ACME", "Doe Jane", 10)))
}

func TestRecordsForTicker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Append(sampleRecord("ACME", "Doe Jane", 10)))
	require.NoError(t, s.Append(sampleRecord("ZETA", "Poe Alex", 11)))
	require.NoError(t, s.Append(sampleRecord("ACME", "Roe Richard", 12)))

	acme := s.RecordsForTicker("ACME")
	require.Len(t, acme, 2)
	assert.Equal(t, "Doe Jane", acme[0].InsiderName)
	assert.Equal(t, "Roe Richard", acme[1].InsiderName)

	assert.Empty(t, s.RecordsForTicker("NONE"))
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.csv")

	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Append(sampleRecord("ACME", "Doe Jane", 10)))
	require.NoError(t, s.Save())

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "history.csv", entries[0].Name())

	// Header row is the fixed schema
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	firstLine := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, strings.Join(csvFields, ","), firstLine)
}

func TestLoadToleratesExtraColumns(t *testing.T) {
	// A future schema may append columns; old readers must still work
	path := filepath.Join(t.TempDir(), "history.csv")
	content := strings.Join([]string{
		"filing_date,trade_date,ticker,company,insider_name,title,trade_type,price,qty,owned,delta_own,value,cluster_buy,source",
		"2026-08-11,2026-08-10,ACME,Acme Corp,Doe Jane,CEO,P - Purchase,10.5,10000,50000,+25%,105000,true,screener",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Open(path, logger.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.True(t, s.Records()[0].ClusterBuy)
}
