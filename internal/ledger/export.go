package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"timestamp", "provider", "model", "processingTimeSec", "pages",
	"inputTokens", "outputTokens", "costUSD", "rating", "ratedAt",
}

func exportRow(e *Entry) []string {
	ratedAt := ""
	if !e.RatedAt.IsZero() {
		ratedAt = e.RatedAt.Format(time.RFC3339)
	}
	return []string{
		e.Timestamp.Format(time.RFC3339),
		e.Provider,
		e.Model,
		strconv.FormatFloat(float64(e.DurationMs)/1000, 'f', 2, 64),
		strconv.Itoa(e.PagesProcessed),
		strconv.Itoa(e.InputTokens),
		strconv.Itoa(e.OutputTokens),
		strconv.FormatFloat(e.CostUSD, 'f', 6, 64),
		e.Rating,
		ratedAt,
	}
}

// ExportCSV renders entries as a CSV document.
func ExportCSV(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := w.Write(exportRow(e)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders entries as an XLSX workbook.
func ExportXLSX(entries []*Entry) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Usage"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, e := range entries {
		values := []any{
			e.Timestamp.Format(time.RFC3339),
			e.Provider,
			e.Model,
			float64(e.DurationMs) / 1000,
			e.PagesProcessed,
			e.InputTokens,
			e.OutputTokens,
			e.CostUSD,
			e.Rating,
		}
		if !e.RatedAt.IsZero() {
			values = append(values, e.RatedAt.Format(time.RFC3339))
		} else {
			values = append(values, "")
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "C", 18)
	_ = f.SetColWidth(sheet, "J", "J", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
