// Package record defines the canonical extracted-record shape and the
// normalization that coerces free-form provider output into it.
package record

import (
	"math"
	"strconv"
	"strings"
)

// Field names accepted from provider JSON output. Providers are prompted to
// use exactly these keys, but responses frequently drift.
const (
	FieldDate          = "date"
	FieldQuantity      = "quantity"
	FieldAmountUSD     = "amountUSD"
	FieldCommissionUSD = "commissionUSD"
	FieldTotalUSD      = "totalUSD"
	FieldTotalKRW      = "totalKRW"
	FieldBalanceKRW    = "balanceKRW"
)

// Record is the canonical result of one page's extraction.
// Every field is always present: Date is a YYYY-MM-DD string or empty,
// numeric fields are finite and default to 0 when the provider output is
// missing or unparsable.
type Record struct {
	Date          string  `json:"date"`
	Quantity      float64 `json:"quantity"`
	AmountUSD     float64 `json:"amountUSD"`
	CommissionUSD float64 `json:"commissionUSD"`
	TotalUSD      float64 `json:"totalUSD"`
	TotalKRW      float64 `json:"totalKRW"`
	BalanceKRW    float64 `json:"balanceKRW"`
}

// Normalize coerces an arbitrary decoded JSON object into a complete Record.
// It never fails: missing keys, nulls, and malformed numerics become zero
// values, and the date is normalized to YYYY-MM-DD or dropped to empty.
func Normalize(raw map[string]any) Record {
	return Record{
		Date:          NormalizeDate(coerceString(raw[FieldDate])),
		Quantity:      coerceNumber(raw[FieldQuantity]),
		AmountUSD:     coerceNumber(raw[FieldAmountUSD]),
		CommissionUSD: coerceNumber(raw[FieldCommissionUSD]),
		TotalUSD:      coerceNumber(raw[FieldTotalUSD]),
		TotalKRW:      coerceNumber(raw[FieldTotalKRW]),
		BalanceKRW:    coerceNumber(raw[FieldBalanceKRW]),
	}
}

// Merge overlays non-zero fields of other onto r and returns the result.
// Used by the structured-parse path where fields are mined independently.
func (r Record) Merge(other Record) Record {
	if other.Date != "" {
		r.Date = other.Date
	}
	if other.Quantity != 0 {
		r.Quantity = other.Quantity
	}
	if other.AmountUSD != 0 {
		r.AmountUSD = other.AmountUSD
	}
	if other.CommissionUSD != 0 {
		r.CommissionUSD = other.CommissionUSD
	}
	if other.TotalUSD != 0 {
		r.TotalUSD = other.TotalUSD
	}
	if other.TotalKRW != 0 {
		r.TotalKRW = other.TotalKRW
	}
	if other.BalanceKRW != 0 {
		r.BalanceKRW = other.BalanceKRW
	}
	return r
}

// coerceNumber converts arbitrary JSON-decoded values to a float64.
// Strings are parsed after stripping thousands separators, currency marks,
// and surrounding whitespace. Anything unparsable becomes 0.
func coerceNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		return ParseNumber(t)
	default:
		return 0
	}
}

// ParseNumber parses a numeric string the way provider outputs and OCR text
// actually arrive: "1,234.5", "US$222.34", "₩327,440", " 42 ". Returns 0 on
// failure.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// Strip currency marks and separators. OCR sometimes renders ₩ as a
	// backslash, so that is stripped too.
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '₩', '\\', ' ':
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimPrefix(cleaned, "US")

	// ParseFloat accepts "NaN" and "Inf" spellings, which would leak
	// non-finite values into the record.
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}
