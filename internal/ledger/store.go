package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/insiderradar/radar/internal/model"
	"github.com/insiderradar/radar/pkg/logger"
)

// csvFields is the persisted column order. Append-only schema: new
// columns may be added at the end, existing ones are never removed or
// reordered, so years-old history files stay readable.
var csvFields = []string{
	"filing_date",
	"trade_date",
	"ticker",
	"company",
	"insider_name",
	"title",
	"trade_type",
	"price",
	"qty",
	"owned",
	"delta_own",
	"value",
	"cluster_buy",
}

// Store is the append-only trade ledger with an in-memory identity
// index. It is the single source of truth; the snapshot is derived.
// The index is rebuilt from the file on every Open, so membership tests
// are O(1) per candidate instead of a scan per run.
type Store struct {
	path    string
	records []*model.TradeRecord // insertion order, never reordered
	index   map[model.Identity]int
	logger  *logger.Logger
}

// Open loads the ledger file and builds the identity index. A missing
// file yields an empty store (first run).
func Open(path string, log *logger.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		index:  make(map[model.Identity]int),
		logger: log,
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if err := s.load(f); err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", path, err)
	}

	log.WithFields(map[string]interface{}{
		"path":    path,
		"records": len(s.records),
	}).Debug("Ledger loaded")

	return s, nil
}

// load reads CSV rows into the store, indexing columns by header name
// so files written with a longer schema still parse
func (s *Store) load(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil // empty file
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := recordFromRow(func(name string) string { return field(row, name) })
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		id := rec.Identity()
		if _, dup := s.index[id]; dup {
			// Should never happen for a file we wrote; keep the first
			s.logger.WithField("identity", id).Warn("Duplicate identity in ledger file, ignoring")
			continue
		}

		s.index[id] = len(s.records)
		s.records = append(s.records, rec)
	}

	return nil
}

// Len returns the number of records in the ledger
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns all records in insertion order. Callers other than
// the cluster detector must treat the records as read-only.
func (s *Store) Records() []*model.TradeRecord {
	return s.records
}

// Contains reports whether a record with this identity is already in
// the ledger
func (s *Store) Contains(id model.Identity) bool {
	_, ok := s.index[id]
	return ok
}

// Append adds a new record to the in-memory ledger. It fails on an
// identity collision; callers check Contains first.
func (s *Store) Append(rec *model.TradeRecord) error {
	id := rec.Identity()
	if _, dup := s.index[id]; dup {
		return fmt.Errorf("duplicate identity %v", id)
	}

	s.index[id] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

// RecordsForTicker returns the full history for one ticker, in
// insertion order. Used by the cluster detector, which must see every
// record for a ticker, not just this run's additions.
func (s *Store) RecordsForTicker(ticker string) []*model.TradeRecord {
	var out []*model.TradeRecord
	for _, rec := range s.records {
		if rec.Ticker == ticker {
			out = append(out, rec)
		}
	}
	return out
}

// Save writes the entire ledger to a temporary file and renames it into
// place. Readers never observe a partial file, and a crash leaves the
// previous ledger intact.
func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.csv")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvFields); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range s.records {
		if err := writer.Write(rowFromRecord(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}

	return nil
}

// recordFromRow builds a TradeRecord from a CSV row accessor
func recordFromRow(field func(string) string) (*model.TradeRecord, error) {
	filingDate, err := model.ParseDate(field("filing_date"))
	if err != nil {
		return nil, err
	}

	tradeDate, err := model.ParseDate(field("trade_date"))
	if err != nil {
		return nil, err
	}

	price, err := strconv.ParseFloat(field("price"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", field("price"))
	}

	qty, err := strconv.ParseInt(field("qty"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid qty %q", field("qty"))
	}

	// Owned and value tolerate absence in older files
	owned, _ := strconv.ParseInt(field("owned"), 10, 64)
	value, _ := strconv.ParseFloat(field("value"), 64)

	return &model.TradeRecord{
		FilingDate:  filingDate,
		TradeDate:   tradeDate,
		Ticker:      field("ticker"),
		Company:     field("company"),
		InsiderName: field("insider_name"),
		Title:       field("title"),
		TradeType:   field("trade_type"),
		Price:       price,
		Qty:         qty,
		Owned:       owned,
		DeltaOwn:    field("delta_own"),
		Value:       value,
		ClusterBuy:  strings.EqualFold(field("cluster_buy"), "true"),
	}, nil
}

// rowFromRecord serializes a TradeRecord in csvFields order
func rowFromRecord(rec *model.TradeRecord) []string {
	return []string{
		rec.FilingDate.String(),
		rec.TradeDate.String(),
		rec.Ticker,
		rec.Company,
		rec.InsiderName,
		rec.Title,
		rec.TradeType,
		strconv.FormatFloat(rec.Price, 'f', -1, 64),
		strconv.FormatInt(rec.Qty, 10),
		strconv.FormatInt(rec.Owned, 10),
		rec.DeltaOwn,
		strconv.FormatFloat(rec.Value, 'f', -1, 64),
		strconv.FormatBool(rec.ClusterBuy),
	}
}
