package ledger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insiderradar/radar/internal/model"
)

// Mirror replicates accepted trade records into Postgres for ad-hoc SQL
// analysis. It is write-only from the pipeline's point of view: the CSV
// ledger stays authoritative and is never rebuilt from the database.
type Mirror struct {
	pool *pgxpool.Pool
}

// NewMirror creates a trade mirror over an existing connection pool
func NewMirror(pool *pgxpool.Pool) *Mirror {
	return &Mirror{pool: pool}
}

// EnsureSchema creates the trades table if it does not exist
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS insider_trades (
			filing_date  date NOT NULL,
			trade_date   date NOT NULL,
			ticker       text NOT NULL,
			company      text NOT NULL DEFAULT '',
			insider_name text NOT NULL,
			title        text NOT NULL DEFAULT '',
			trade_type   text NOT NULL DEFAULT '',
			price        double precision NOT NULL,
			qty          bigint NOT NULL,
			owned        bigint NOT NULL DEFAULT 0,
			delta_own    text NOT NULL DEFAULT '',
			value        double precision NOT NULL DEFAULT 0,
			cluster_buy  boolean NOT NULL DEFAULT false,
			PRIMARY KEY (ticker, insider_name, trade_date, filing_date, qty, price)
		)
	`

	_, err := m.pool.Exec(ctx, ddl)
	return err
}

// Save upserts a single trade record. The conflict target is the
// identity tuple; only the derived cluster flag may change on conflict.
func (m *Mirror) Save(ctx context.Context, rec *model.TradeRecord) error {
	query := `
		INSERT INTO insider_trades (
			filing_date, trade_date, ticker, company, insider_name,
			title, trade_type, price, qty, owned, delta_own, value, cluster_buy
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (ticker, insider_name, trade_date, filing_date, qty, price) DO UPDATE SET
			cluster_buy = EXCLUDED.cluster_buy
	`

	_, err := m.pool.Exec(ctx, query,
		rec.FilingDate.Time, rec.TradeDate.Time, rec.Ticker, rec.Company, rec.InsiderName,
		rec.Title, rec.TradeType, rec.Price, rec.Qty, rec.Owned, rec.DeltaOwn, rec.Value, rec.ClusterBuy,
	)
	return err
}

// SaveBatch upserts multiple trade records
func (m *Mirror) SaveBatch(ctx context.Context, records []*model.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		if err := m.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
