package model

// TradeRecord is the canonical unit of the pipeline: one disclosed
// open-market insider purchase, as accepted into the ledger.
// Field order mirrors the persisted CSV schema; existing fields are
// never removed or reordered so long-lived history stays readable.
type TradeRecord struct {
	FilingDate  Date    `json:"filing_date"`
	TradeDate   Date    `json:"trade_date"`
	Ticker      string  `json:"ticker"`
	Company     string  `json:"company"`
	InsiderName string  `json:"insider_name"`
	Title       string  `json:"title"`
	TradeType   string  `json:"trade_type"`
	Price       float64 `json:"price"`
	Qty         int64   `json:"qty"`
	Owned       int64   `json:"owned"`
	DeltaOwn    string  `json:"delta_own"` // raw percentage text, may be "New"
	Value       float64 `json:"value"`
	ClusterBuy  bool    `json:"cluster_buy"`
}

// ValueOverflowSentinel is what OpenInsider renders when a trade value
// overflows its int32 column. Such rows stay in the ledger but are
// excluded from the published snapshot.
const ValueOverflowSentinel = 2147483647

// Identity is the deduplication key of a trade record. Two records with
// equal identity are the same disclosure regardless of when they were
// observed. Dates are kept as ISO strings so the struct is comparable.
type Identity struct {
	Ticker      string
	InsiderName string
	TradeDate   string
	FilingDate  string
	Qty         int64
	Price       float64
}

// Identity returns the deduplication key for this record
func (r *TradeRecord) Identity() Identity {
	return Identity{
		Ticker:      r.Ticker,
		InsiderName: r.InsiderName,
		TradeDate:   r.TradeDate.String(),
		FilingDate:  r.FilingDate.String(),
		Qty:         r.Qty,
		Price:       r.Price,
	}
}
