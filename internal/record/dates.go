package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// koreanDateRe matches dates written with Korean era characters,
	// e.g. "2024년 3월 5일".
	koreanDateRe = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)

	// dottedDateRe matches "2024.03.05", "2024-3-5" and mixed separators.
	dottedDateRe = regexp.MustCompile(`(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})`)
)

// NormalizeDate converts a date string found in provider output or OCR text
// to ISO form. The Korean-character form is zero-padded to YYYY-MM-DD. The
// dotted form only swaps separators and does NOT pad single-digit month/day;
// downstream consumers have come to rely on both behaviors, so the asymmetry
// is kept as is.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := koreanDateRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
	}

	if m := dottedDateRe.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}

	return ""
}

// FindDate scans arbitrary OCR text for the first recognizable date and
// returns it normalized, or empty when no date pattern is present.
func FindDate(text string) string {
	if m := koreanDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
	}
	if m := dottedDateRe.FindStringSubmatch(text); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return ""
}
