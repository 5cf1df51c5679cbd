package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insiderradar/radar/internal/cluster"
	"github.com/insiderradar/radar/internal/ledger"
	"github.com/insiderradar/radar/internal/model"
	"github.com/insiderradar/radar/internal/normalize"
	"github.com/insiderradar/radar/internal/openinsider"
	"github.com/insiderradar/radar/internal/retention"
	"github.com/insiderradar/radar/pkg/config"
	"github.com/insiderradar/radar/pkg/logger"
)

// Source supplies raw disclosure rows for a lookback period. Implemented
// by openinsider.Client; faked in tests.
type Source interface {
	FetchPage(ctx context.Context, page int) ([]openinsider.RawTrade, error)
}

// Mirror receives accepted records after the ledger is persisted.
// Implemented by ledger.Mirror when a database is configured.
type Mirror interface {
	SaveBatch(ctx context.Context, records []*model.TradeRecord) error
}

// RunSummary reports what one pipeline run did
type RunSummary struct {
	Fetched         int            `json:"fetched"`
	Accepted        int            `json:"accepted"`
	Rejected        map[string]int `json:"rejected"` // by reason code
	Appended        int            `json:"appended"`
	Duplicates      int            `json:"duplicates"`
	AffectedTickers int            `json:"affected_tickers"`
	NewClusterFlags int            `json:"new_cluster_flags"`
	LedgerSize      int            `json:"ledger_size"`
	SnapshotCount   int            `json:"snapshot_count"`
	Duration        time.Duration  `json:"duration"`
}

// RejectedTotal sums rejections across reasons
func (s *RunSummary) RejectedTotal() int {
	total := 0
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

// Pipeline drives one ingestion run end to end. It is the sole writer
// of both artifacts; runs are sequential batch jobs, at most one at a
// time (the scheduler's responsibility).
type Pipeline struct {
	cfg        *config.Config
	source     Source
	normalizer *normalize.Normalizer
	detector   *cluster.Detector
	mirror     Mirror
	logger     *logger.Logger
	now        func() time.Time
}

// New creates a pipeline from config and a raw-data source
func New(cfg *config.Config, source Source, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		source:     source,
		normalizer: normalize.New(cfg, log),
		detector:   cluster.New(cfg.Pipeline.ClusterWindowDays, cfg.Pipeline.ClusterMinInsiders),
		logger:     log,
		now:        time.Now,
	}
}

// WithMirror attaches an optional database mirror
func (p *Pipeline) WithMirror(m Mirror) *Pipeline {
	p.mirror = m
	return p
}

// Run executes one scheduled ingestion run: fetch the first screener
// page, normalize, dedup, recompute clusters, publish. A total fetch
// failure aborts before anything is touched; re-running with an
// unchanged feed is a no-op apart from the snapshot timestamp.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	raws, err := p.source.FetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch failed, run aborted: %w", err)
	}
	return p.ingest(ctx, raws)
}

// RunBackfill executes a historical backfill over up to maxPages
// screener pages, stopping early when a page comes back empty. Page
// errors after the first page end pagination instead of failing the
// run; everything fetched so far still goes through the pipeline.
func (p *Pipeline) RunBackfill(ctx context.Context, maxPages int) (*RunSummary, error) {
	var raws []openinsider.RawTrade

	for page := 1; page <= maxPages; page++ {
		rows, err := p.source.FetchPage(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("fetch failed, run aborted: %w", err)
			}
			if !errors.Is(err, openinsider.ErrNoResultsTable) {
				p.logger.WithError(err).WithField("page", page).Warn("Backfill page failed, stopping pagination")
			}
			break
		}
		if len(rows) == 0 {
			break
		}

		raws = append(raws, rows...)

		p.logger.WithFields(map[string]interface{}{
			"page": page,
			"rows": len(rows),
		}).Info("Backfill page fetched")
	}

	return p.ingest(ctx, raws)
}

// ingest runs the normalize, dedup, cluster, retain and publish stages
// over a batch of raw rows
func (p *Pipeline) ingest(ctx context.Context, raws []openinsider.RawTrade) (*RunSummary, error) {
	start := p.now()
	summary := &RunSummary{
		Fetched:  len(raws),
		Rejected: make(map[string]int),
	}

	if len(raws) == 0 {
		// Nothing fetched: prior artifacts stand, nothing is written
		p.logger.Warn("Source returned no rows, skipping publication")
		summary.Duration = p.now().Sub(start)
		return summary, nil
	}

	store, err := ledger.Open(p.cfg.Data.LedgerPath(), p.logger)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// Normalize. One malformed row never aborts the batch.
	var accepted []*model.TradeRecord
	for _, raw := range raws {
		rec, err := p.normalizer.Normalize(raw)
		if err != nil {
			var reject *normalize.RejectError
			if errors.As(err, &reject) {
				summary.Rejected[reject.Reason]++
				p.logger.WithFields(map[string]interface{}{
					"reason": reject.Reason,
					"ticker": raw.Ticker,
				}).Debug("Record rejected")
				continue
			}
			return nil, err
		}
		accepted = append(accepted, rec)
	}
	summary.Accepted = len(accepted)

	// Dedup and append, tracking tickers that gained records
	affected := make(map[string]struct{})
	for _, rec := range accepted {
		if store.Contains(rec.Identity()) {
			summary.Duplicates++
			continue
		}
		if err := store.Append(rec); err != nil {
			return nil, fmt.Errorf("append to ledger: %w", err)
		}
		summary.Appended++
		affected[rec.Ticker] = struct{}{}
	}
	summary.AffectedTickers = len(affected)

	// Recompute cluster flags over the complete history of each
	// affected ticker; untouched tickers keep their flags as stored
	for ticker := range affected {
		summary.NewClusterFlags += p.detector.Flag(store.RecordsForTicker(ticker))
	}

	snapshot := retention.Build(store.Records(), p.cfg.Pipeline.RetentionDays, p.now())
	summary.LedgerSize = store.Len()
	summary.SnapshotCount = snapshot.TradeCount

	// Persist the source of truth first, then the derived view. Each
	// write is temp-file + rename, so a crash between the two leaves a
	// valid (at worst stale) snapshot next to a valid ledger.
	if err := store.Save(); err != nil {
		return nil, fmt.Errorf("persist ledger: %w", err)
	}
	if err := writeJSONAtomic(p.cfg.Data.SnapshotPath(), snapshot); err != nil {
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}

	p.syncMirror(ctx, store, affected)

	summary.Duration = p.now().Sub(start)

	p.logger.WithFields(map[string]interface{}{
		"fetched":           summary.Fetched,
		"accepted":          summary.Accepted,
		"rejected":          summary.RejectedTotal(),
		"appended":          summary.Appended,
		"duplicates":        summary.Duplicates,
		"affected_tickers":  summary.AffectedTickers,
		"new_cluster_flags": summary.NewClusterFlags,
		"ledger_size":       summary.LedgerSize,
		"snapshot_count":    summary.SnapshotCount,
	}).Info("Pipeline run completed")

	return summary, nil
}

// syncMirror pushes every record of the affected tickers (appends and
// flag updates alike) to the database mirror. Mirror failure is logged,
// never fatal: the file artifacts remain the source of truth.
func (p *Pipeline) syncMirror(ctx context.Context, store *ledger.Store, affected map[string]struct{}) {
	if p.mirror == nil || len(affected) == 0 {
		return
	}

	var records []*model.TradeRecord
	for ticker := range affected {
		records = append(records, store.RecordsForTicker(ticker)...)
	}

	if err := p.mirror.SaveBatch(ctx, records); err != nil {
		p.logger.WithError(err).Error("Mirror sync failed")
		return
	}

	p.logger.WithField("records", len(records)).Debug("Mirror synced")
}
