package openinsider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/insiderradar/radar/pkg/config"
	"github.com/insiderradar/radar/pkg/httputil"
	"github.com/insiderradar/radar/pkg/logger"
)

// ErrNoResultsTable is returned when the screener response contains no
// results table. On page 1 this means the response is unusable; on
// later pages it marks the end of pagination.
var ErrNoResultsTable = errors.New("openinsider: results table not found")

// RawTrade is one screener row exactly as scraped: trimmed cell text,
// no parsing. The normalizer is the only place this crosses into typed
// data.
type RawTrade struct {
	FilingDate  string
	TradeDate   string
	Ticker      string
	Company     string
	InsiderName string
	Title       string
	TradeType   string
	Price       string
	Qty         string
	Owned       string
	DeltaOwn    string
	Value       string
}

// Client fetches screener pages from openinsider.com.
// SSOT: OpenInsider requests are built and issued only here.
type Client struct {
	baseURL      string
	lookbackDays int
	pageSize     int
	minValueK    int // vl param, server-side floor in $K units
	httpClient   *httputil.Client
	logger       *logger.Logger
}

// NewClient creates a screener client from config
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		baseURL:      cfg.Source.BaseURL,
		lookbackDays: cfg.Source.LookbackDays,
		pageSize:     cfg.Source.PageSize,
		minValueK:    int(cfg.Pipeline.MinTradeValue / 1000),
		httpClient:   httpClient,
		logger:       log,
	}
}

// FetchPage fetches and parses one screener page (1-based).
// Returns the raw rows without any filtering; policy filters (purchase
// codes, minimum value) are the normalizer's job because the screener
// params are not reliably honoured server-side.
func (c *Client) FetchPage(ctx context.Context, page int) ([]RawTrade, error) {
	pageURL := c.screenerURL(page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screener request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screener returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	rows, err := parseScreenerHTML(string(body))
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"page": page,
		"rows": len(rows),
	}).Debug("Fetched screener page")

	return rows, nil
}

// screenerURL builds the full screener query for a page. The parameter
// set matches what the endpoint expects; omitting the blank ones makes
// it fall back to a different default screen.
func (c *Client) screenerURL(page int) string {
	params := url.Values{}
	for _, key := range []string{
		"s", "o", "pl", "ph", "ll", "lh", "fdr", "tdr",
		"fdlyl", "fdlyh", "daysago", "vh", "ocl", "och",
		"nfl", "nfh", "nil", "nih", "nol", "noh",
		"v2l", "v2h", "oc2l", "oc2h",
	} {
		params.Set(key, "")
	}

	params.Set("fd", strconv.Itoa(c.lookbackDays))
	params.Set("td", "0")
	params.Set("xp", "1")
	params.Set("vl", strconv.Itoa(c.minValueK))
	params.Set("sic1", "-1")
	params.Set("sicl", "100")
	params.Set("sich", "9999")

	// All insider role filters on
	for _, key := range []string{
		"isofficer", "iscob", "isceo", "ispres", "iscoo",
		"iscfo", "isgc", "isvp", "isdirector", "istenpercent", "isother",
	} {
		params.Set(key, "1")
	}

	params.Set("grp", "0")
	params.Set("sortcol", "0")
	params.Set("cnt", strconv.Itoa(c.pageSize))
	params.Set("page", strconv.Itoa(page))

	return c.baseURL + "?" + params.Encode()
}
