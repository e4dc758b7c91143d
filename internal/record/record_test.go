package record

import (
	"math"
	"testing"
)

func TestNormalize_MissingFields(t *testing.T) {
	// Any subset of fields may be missing; the record is always complete.
	cases := []map[string]any{
		nil,
		{},
		{"date": "2024-03-05"},
		{"quantity": 12.5},
		{"amountUSD": nil, "totalKRW": nil},
		{"unexpected": "value"},
	}

	for _, raw := range cases {
		rec := Normalize(raw)
		if rec.Quantity != 0 && raw["quantity"] == nil {
			t.Errorf("Normalize(%v): Quantity = %v, want 0", raw, rec.Quantity)
		}
		// Date must be ISO or empty, never a raw passthrough.
		if rec.Date != "" && len(rec.Date) < 8 {
			t.Errorf("Normalize(%v): Date = %q", raw, rec.Date)
		}
	}
}

func TestNormalize_MalformedNumerics(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"thousands separator", "1,234.5", 1234.5},
		{"empty string", "", 0},
		{"null", nil, 0},
		{"non-numeric", "abc", 0},
		{"plain float", 42.75, 42.75},
		{"currency prefix", "US$222.34", 222.34},
		{"won with separator", "₩327,440", 327440},
		{"ocr backslash won", `\32,744`, 32744},
		// ParseFloat accepts these spellings; the record must stay finite.
		{"nan string", "NaN", 0},
		{"inf string", "Inf", 0},
		{"negative inf string", "-Inf", 0},
		{"nan float", math.NaN(), 0},
		{"inf float", math.Inf(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(map[string]any{"totalUSD": tt.in})
			if rec.TotalUSD != tt.want {
				t.Errorf("TotalUSD = %v, want %v", rec.TotalUSD, tt.want)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"korean form is zero-padded", "2024년 3월 5일", "2024-03-05"},
		{"korean form without spaces", "2024년3월5일", "2024-03-05"},
		// The dot-separated path swaps separators only; single-digit
		// month/day stay unpadded.
		{"dotted form is not padded", "2024.3.5", "2024-3-5"},
		{"dotted form already padded", "2024.03.05", "2024-03-05"},
		{"iso passthrough", "2024-03-05", "2024-03-05"},
		{"slash separators", "2024/03/05", "2024-03-05"},
		{"garbage", "next tuesday", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.in); got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFindDate(t *testing.T) {
	text := "정산서\n발행일: 2024년 11월 2일\n기타"
	if got := FindDate(text); got != "2024-11-02" {
		t.Errorf("FindDate = %q, want 2024-11-02", got)
	}

	if got := FindDate("no dates here"); got != "" {
		t.Errorf("FindDate = %q, want empty", got)
	}
}

func TestMerge(t *testing.T) {
	base := Record{Date: "2024-01-01", Quantity: 10}
	overlay := Record{Quantity: 20, TotalUSD: 5}

	got := base.Merge(overlay)
	if got.Date != "2024-01-01" {
		t.Errorf("Date = %q, want preserved base value", got.Date)
	}
	if got.Quantity != 20 {
		t.Errorf("Quantity = %v, want 20", got.Quantity)
	}
	if got.TotalUSD != 5 {
		t.Errorf("TotalUSD = %v, want 5", got.TotalUSD)
	}
}

func TestValidateRaw(t *testing.T) {
	if err := ValidateRaw(map[string]any{"date": "2024-03-05", "quantity": 12.0}); err != nil {
		t.Errorf("ValidateRaw() error = %v", err)
	}

	// Wrong types are reported but Normalize still succeeds on the same input.
	bad := map[string]any{"quantity": []any{1, 2}}
	if err := ValidateRaw(bad); err == nil {
		t.Error("expected validation error for array-typed field")
	}
	rec := Normalize(bad)
	if rec.Quantity != 0 {
		t.Errorf("Quantity = %v, want 0", rec.Quantity)
	}
}
