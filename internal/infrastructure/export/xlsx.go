// Package export writes monthly summaries to spreadsheet files.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/domain/report"
)

// Sheet names in the exported workbook.
const (
	SummarySheet = "Summary"
	EntriesSheet = "Entries"
)

var entryHeader = []interface{}{"Date", "Store", "Amount", "ID"}

// XLSXExporter implements port.ReportExporter with excelize.
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger}
}

// Export writes summary to path, creating parent directories as needed.
// An existing file at path is replaced.
func (x *XLSXExporter) Export(ctx context.Context, summary report.MonthlySummary, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.logger.Info("Exporting monthly summary",
		zap.String("month", summary.Month.Key()),
		zap.Int("entries", summary.Count()),
		zap.String("path", path))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(EntriesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	x.writeSummary(f, summary, bold)
	if err := x.writeEntries(f, summary, bold); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	x.logger.Info("Monthly summary exported", zap.String("path", path))
	return nil
}

func (x *XLSXExporter) writeSummary(f *excelize.File, s report.MonthlySummary, bold int) {
	rows := [][2]interface{}{
		{"Month", s.Month.Label()},
		{"Entries", s.Count()},
		{"Total", s.Total.InexactFloat64()},
		{"Previous month total", s.PreviousTotal.InexactFloat64()},
		{"Trend", s.Trend.String()},
	}
	for i, row := range rows {
		r := i + 1
		x.setCell(f, SummarySheet, fmt.Sprintf("A%d", r), row[0])
		x.setCell(f, SummarySheet, fmt.Sprintf("B%d", r), row[1])
	}
	x.style(f, SummarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	x.width(f, SummarySheet, "A", 24)
	x.width(f, SummarySheet, "B", 28)
}

func (x *XLSXExporter) writeEntries(f *excelize.File, s report.MonthlySummary, bold int) error {
	if err := f.SetSheetRow(EntriesSheet, "A1", &entryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	x.style(f, EntriesSheet, "A1", "D1", bold)

	for i, e := range s.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Date, e.StoreName, e.Amount, e.ID}
		if err := f.SetSheetRow(EntriesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", e.ID, err)
		}
	}

	x.width(f, EntriesSheet, "A", 12)
	x.width(f, EntriesSheet, "B", 32)
	x.width(f, EntriesSheet, "D", 38)
	return nil
}

// setCell sets a cell value, logging instead of failing the export.
func (x *XLSXExporter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		x.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func (x *XLSXExporter) style(f *excelize.File, sheet, from, to string, style int) {
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		x.logger.Warn("Failed to set cell style", zap.String("sheet", sheet), zap.Error(err))
	}
}

func (x *XLSXExporter) width(f *excelize.File, sheet, col string, w float64) {
	if err := f.SetColWidth(sheet, col, col, w); err != nil {
		x.logger.Warn("Failed to set column width", zap.String("sheet", sheet), zap.Error(err))
	}
}
