package providers

import (
	"regexp"
	"strings"

	"github.com/minjae-lee/settlescan/internal/record"
)

// docElement is one layout element from a document-parse response.
type docElement struct {
	Category string `json:"category"`
	Content  struct {
		Text     string `json:"text"`
		Markdown string `json:"markdown"`
	} `json:"content"`
}

func (e docElement) text() string {
	if e.Content.Text != "" {
		return e.Content.Text
	}
	return e.Content.Markdown
}

// Settlement charge tables print amounts with mixed currency marks, so every
// amount pattern tolerates won signs, backslash-rendered won signs and dollar
// prefixes between the label and the figure it wants.
var (
	quantityRe   = regexp.MustCompile(`([\d,]+(?:\.\d+)?)\s*GT\b`)
	chargeUSDRe  = regexp.MustCompile(`(?i)(?:INV(?:OICE)?\.?\s*)?CHARGE[^\n]*?US?\$\s*([\d,]+(?:\.\d+)?)`)
	commissionRe = regexp.MustCompile(`(?i)COMMISSION[^\n]*?US?\$\s*([\d,]+(?:\.\d+)?)`)
	totalUSDRe   = regexp.MustCompile(`US?\$\s*([\d,]+(?:\.\d+)?)`)
	totalKRWRe   = regexp.MustCompile(`[₩\\]\s*([\d,]+(?:\.\d+)?)`)
	balanceRe    = regexp.MustCompile(`(?im)BALANCE[^\n]*?([\d,]+(?:\.\d+)?) *$`)
	totalLineRe  = regexp.MustCompile(`(?im)^.*\bTOTAL\b.*$`)
)

// mineElements reads settlement fields out of a parsed element list. It never
// fails: fields it cannot find stay at their zero values.
func mineElements(elements []docElement) record.Record {
	var rec record.Record

	for _, el := range elements {
		text := el.text()
		if text == "" {
			continue
		}

		if rec.Date == "" {
			rec.Date = record.FindDate(text)
		}
		if rec.Quantity == 0 {
			if m := quantityRe.FindStringSubmatch(text); m != nil {
				rec.Quantity = record.ParseNumber(m[1])
			}
		}
		if rec.BalanceKRW == 0 {
			if m := balanceRe.FindStringSubmatch(text); m != nil {
				rec.BalanceKRW = record.ParseNumber(m[1])
			}
		}

		// Charge tables carry the remaining amounts. Table-category elements
		// are always mined; parsers sometimes mislabel the charge table, so
		// elements naming COMMISSION or TOTAL are mined as a fallback.
		upper := strings.ToUpper(text)
		if el.Category != "table" &&
			!strings.Contains(upper, "COMMISSION") &&
			!strings.Contains(upper, "TOTAL") {
			continue
		}

		if rec.AmountUSD == 0 {
			if m := chargeUSDRe.FindStringSubmatch(text); m != nil {
				rec.AmountUSD = record.ParseNumber(m[1])
			}
		}
		if rec.CommissionUSD == 0 {
			if m := commissionRe.FindStringSubmatch(text); m != nil {
				rec.CommissionUSD = record.ParseNumber(m[1])
			}
		}
		if rec.TotalUSD == 0 || rec.TotalKRW == 0 {
			usd, krw := mineTotals(text)
			if rec.TotalUSD == 0 {
				rec.TotalUSD = usd
			}
			if rec.TotalKRW == 0 {
				rec.TotalKRW = krw
			}
		}
	}

	return rec
}

// mineTotals picks the USD and KRW amounts off the grand-total line. Charge
// tables print a subtotal line first and the grand total line second, so when
// two TOTAL lines exist the second wins.
func mineTotals(text string) (usd, krw float64) {
	lines := totalLineRe.FindAllString(text, -1)
	if len(lines) == 0 {
		return 0, 0
	}
	line := lines[0]
	if len(lines) > 1 {
		line = lines[1]
	}
	if m := totalUSDRe.FindStringSubmatch(line); m != nil {
		usd = record.ParseNumber(m[1])
	}
	if m := totalKRWRe.FindStringSubmatch(line); m != nil {
		krw = record.ParseNumber(m[1])
	}
	return usd, krw
}

// mineFlatText is the fallback when a response carries no element list, only
// a flat text or markdown rendering. Layout is unreliable there, so only the
// layout-independent fields are attempted.
func mineFlatText(text string) record.Record {
	var rec record.Record
	rec.Date = record.FindDate(text)
	if m := quantityRe.FindStringSubmatch(text); m != nil {
		rec.Quantity = record.ParseNumber(m[1])
	}
	return rec
}
