package httpapi

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
)

// ImportStatsHeader is the column layout of the export.
var ImportStatsHeader = []string{
	"Manufacturer",
	"Last Run",
	"Fetched",
	"Persisted",
	"Errors",
	"Duration (s)",
	"Failed Records",
}

// GenerateImportStatsExport renders the latest run metrics of every
// vendor as an Excel file, one row per vendor.
func GenerateImportStatsExport(stats []imports.RunStats) ([]byte, error) {
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Manufacturer < stats[j].Manufacturer
	})

	f := excelize.NewFile()
	// Don't defer Close() here, WriteTo needs the file to be open.

	sheetName := "Import Stats"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ImportStatsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{15, 22, 10, 10, 10, 14, 60}
	for i := range ImportStatsHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, entry := range stats {
		row := rowIdx + 2
		values := []any{
			string(entry.Manufacturer),
			entry.LastRunAt.UTC().Format(time.RFC3339),
			entry.Fetched,
			entry.Persisted,
			entry.Errors,
			entry.Duration.Seconds(),
			formatFailures(entry.Failures),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFailures(failures []imports.RecordFailure) string {
	var buf bytes.Buffer
	for i, failure := range failures {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(failure.RecordID)
		buf.WriteString(": ")
		buf.WriteString(failure.Message)
	}
	return buf.String()
}
