package openinsider

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseScreenerHTML extracts raw trade rows from a screener results
// page. The results table carries class "tinytable"; data rows have at
// least 16 cells:
//
//	0: checkbox, 1: filing date, 2: trade date, 3: ticker, 4: company,
//	5: insider name, 6: title, 7: trade type, 8: price, 9: qty,
//	10: owned, 11: delta own, 12: value, 13+: performance columns
func parseScreenerHTML(html string) ([]RawTrade, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table.tinytable").First()
	if table.Length() == 0 {
		return nil, ErrNoResultsTable
	}

	var rows []RawTrade
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 16 {
			return
		}

		text := func(idx int) string {
			return strings.TrimSpace(cells.Eq(idx).Text())
		}

		rows = append(rows, RawTrade{
			FilingDate:  text(1),
			TradeDate:   text(2),
			Ticker:      text(3),
			Company:     text(4),
			InsiderName: text(5),
			Title:       text(6),
			TradeType:   text(7),
			Price:       text(8),
			Qty:         text(9),
			Owned:       text(10),
			DeltaOwn:    text(11),
			Value:       text(12),
		})
	})

	return rows, nil
}
