package openinsider

import (
	"errors"
	"testing"
)

const sampleScreenerHTML = `
<html>
<body>
<table class="tinytable">
<thead>
<tr><th>X</th><th>Filing Date</th><th>Trade Date</th><th>Ticker</th><th>Company Name</th>
<th>Insider Name</th><th>Title</th><th>Trade Type</th><th>Price</th><th>Qty</th>
<th>Owned</th><th>dOwn</th><th>Value</th><th>1d</th><th>1w</th><th>1m</th><th>6m</th></tr>
</thead>
<tbody>
<tr>
<td><input type="checkbox"></td>
<td><a href="#">2026-08-20 16:32:11</a></td>
<td>2026-08-19</td>
<td><a href="#">ACME</a></td>
<td><a href="#">Acme Corp</a></td>
<td><a href="#">Doe Jane</a></td>
<td>CEO</td>
<td>P - Purchase</td>
<td>$12.34</td>
<td>+10,000</td>
<td>110,000</td>
<td>+10%</td>
<td>$123,400</td>
<td>1%</td><td>2%</td><td>3%</td><td>4%</td>
</tr>
<tr>
<td colspan="3">short row, skipped</td>
</tr>
</tbody>
</table>
</body>
</html>`

func TestParseScreenerHTML(t *testing.T) {
	rows, err := parseScreenerHTML(sampleScreenerHTML)
	if err != nil {
		t.Fatalf("parseScreenerHTML() failed: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.FilingDate != "2026-08-20 16:32:11" {
		t.Errorf("FilingDate = %q", row.FilingDate)
	}
	if row.TradeDate != "2026-08-19" {
		t.Errorf("TradeDate = %q", row.TradeDate)
	}
	if row.Ticker != "ACME" {
		t.Errorf("Ticker = %q", row.Ticker)
	}
	if row.InsiderName != "Doe Jane" {
		t.Errorf("InsiderName = %q", row.InsiderName)
	}
	if row.TradeType != "P - Purchase" {
		t.Errorf("TradeType = %q", row.TradeType)
	}
	if row.Price != "$12.34" {
		t.Errorf("Price = %q, raw cell text expected", row.Price)
	}
	if row.Value != "$123,400" {
		t.Errorf("Value = %q, raw cell text expected", row.Value)
	}
}

func TestParseScreenerHTMLNoTable(t *testing.T) {
	_, err := parseScreenerHTML("<html><body><p>blocked</p></body></html>")
	if !errors.Is(err, ErrNoResultsTable) {
		t.Errorf("err = %v, want ErrNoResultsTable", err)
	}
}

func TestParseScreenerHTMLEmptyTable(t *testing.T) {
	rows, err := parseScreenerHTML(`<table class="tinytable"><tbody></tbody></table>`)
	if err != nil {
		t.Fatalf("parseScreenerHTML() failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
