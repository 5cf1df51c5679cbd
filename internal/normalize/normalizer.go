package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/insiderradar/radar/internal/model"
	"github.com/insiderradar/radar/internal/openinsider"
	"github.com/insiderradar/radar/pkg/config"
	"github.com/insiderradar/radar/pkg/logger"
)

// Rejection reason codes, tallied in the run summary
const (
	ReasonNotPurchase   = "not_purchase"
	ReasonBelowMinValue = "below_min_value"
	ReasonBadField      = "bad_field"
)

// RejectError explains why a raw screener row was dropped
type RejectError struct {
	Reason string
	Field  string // set for ReasonBadField
	Detail string
}

func (e *RejectError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record rejected (%s): field %s: %s", e.Reason, e.Field, e.Detail)
	}
	return fmt.Sprintf("record rejected (%s): %s", e.Reason, e.Detail)
}

// Normalizer converts raw screener rows into canonical trade records.
// It is the only place loosely-typed scraper output crosses into typed
// data; nothing past this boundary re-validates.
type Normalizer struct {
	minTradeValue float64
	logger        *logger.Logger
}

// New creates a Normalizer from config
func New(cfg *config.Config, log *logger.Logger) *Normalizer {
	return &Normalizer{
		minTradeValue: cfg.Pipeline.MinTradeValue,
		logger:        log,
	}
}

// Normalize validates and coerces one raw row. It returns the canonical
// record, or a *RejectError describing why the row was dropped. Pure
// apart from logging; a rejection never aborts the surrounding batch.
func (n *Normalizer) Normalize(raw openinsider.RawTrade) (*model.TradeRecord, error) {
	// (a) only open-market purchases enter the ledger
	if !strings.HasPrefix(strings.TrimSpace(raw.TradeType), "P") {
		return nil, &RejectError{Reason: ReasonNotPurchase, Detail: raw.TradeType}
	}

	price := parseValue(raw.Price)
	qty := parseValue(raw.Qty)
	value := parseValue(raw.Value)
	if value == 0 {
		value = price * qty
	}

	// (b) minimum trade value, on the declared value or price×qty
	if value < n.minTradeValue {
		return nil, &RejectError{
			Reason: ReasonBelowMinValue,
			Detail: fmt.Sprintf("value %.0f below minimum %.0f", value, n.minTradeValue),
		}
	}

	// (c) required fields must be present and parseable
	ticker := strings.ToUpper(strings.TrimSpace(raw.Ticker))
	if ticker == "" {
		return nil, badField("ticker", "empty")
	}

	insider := strings.TrimSpace(raw.InsiderName)
	if insider == "" {
		return nil, badField("insider_name", "empty")
	}

	filingDate, err := parseDate(raw.FilingDate)
	if err != nil {
		return nil, badField("filing_date", raw.FilingDate)
	}

	tradeDate, err := parseDate(raw.TradeDate)
	if err != nil {
		return nil, badField("trade_date", raw.TradeDate)
	}

	if price <= 0 {
		return nil, badField("price", raw.Price)
	}

	if qty <= 0 {
		return nil, badField("qty", raw.Qty)
	}

	// Expected but not enforced; late paper filings do violate it
	if filingDate.Before(tradeDate.Time) {
		n.logger.WithFields(map[string]interface{}{
			"ticker":      ticker,
			"filing_date": filingDate.String(),
			"trade_date":  tradeDate.String(),
		}).Warn("Filing date precedes trade date")
	}

	return &model.TradeRecord{
		FilingDate:  filingDate,
		TradeDate:   tradeDate,
		Ticker:      ticker,
		Company:     strings.TrimSpace(raw.Company),
		InsiderName: insider,
		Title:       strings.TrimSpace(raw.Title),
		TradeType:   strings.TrimSpace(raw.TradeType),
		Price:       price,
		Qty:         int64(qty),
		Owned:       int64(parseValue(raw.Owned)),
		DeltaOwn:    strings.TrimSpace(raw.DeltaOwn),
		Value:       value,
		ClusterBuy:  false,
	}, nil
}

func badField(field, detail string) *RejectError {
	return &RejectError{Reason: ReasonBadField, Field: field, Detail: detail}
}

var numberJunk = regexp.MustCompile(`[$,\s%+]`)

// cleanNumber strips currency symbols, separators and sign decoration
func cleanNumber(text string) string {
	return strings.TrimSpace(numberJunk.ReplaceAllString(text, ""))
}

// parseValue converts a formatted number string to float64, 0 on failure
func parseValue(text string) float64 {
	v, err := strconv.ParseFloat(cleanNumber(text), 64)
	if err != nil {
		return 0
	}
	return v
}

var isoDatePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// parseDate accepts the date formats OpenInsider is known to emit and
// returns the calendar date, dropping any appended time portion
func parseDate(text string) (model.Date, error) {
	text = strings.TrimSpace(text)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return model.DateOf(t), nil
		}
	}

	// A time may be appended in a format we do not list; take the date part
	if m := isoDatePrefix.FindStringSubmatch(text); m != nil {
		return model.ParseDate(m[1])
	}

	return model.Date{}, fmt.Errorf("unrecognized date %q", text)
}
