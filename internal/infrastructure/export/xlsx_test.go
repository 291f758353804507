package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/month"
	"github.com/garyjia/receipt-ledger/internal/domain/report"
)

func TestXLSXExporter_Export(t *testing.T) {
	ledger := []entity.Expense{
		{ID: "a", StoreName: "A", Date: "2024-05-03", Amount: 100, CreatedAt: 1},
		{ID: "b", StoreName: "B", Date: "2024-05-20", Amount: 50.5, CreatedAt: 2},
		{ID: "c", StoreName: "C", Date: "2024-04-11", Amount: 100, CreatedAt: 3},
	}
	summary := report.Summarize(ledger, month.New(2024, 4))
	path := filepath.Join(t.TempDir(), "out", "may.xlsx")

	require.NoError(t, NewXLSXExporter(zap.NewNop()).Export(context.Background(), summary, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, EntriesSheet}, f.GetSheetList())

	label, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "May 2024", label)

	total, err := f.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "150.5", total)

	trend, err := f.GetCellValue(SummarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "+50.5%", trend)

	rows, err := f.GetRows(EntriesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Store", "Amount", "ID"}, rows[0])
	assert.Equal(t, []string{"2024-05-20", "B", "50.5", "b"}, rows[1])
	assert.Equal(t, []string{"2024-05-03", "A", "100", "a"}, rows[2])
}

func TestXLSXExporter_EmptyMonth(t *testing.T) {
	summary := report.Summarize(nil, month.New(2024, 0))
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, NewXLSXExporter(zap.NewNop()).Export(context.Background(), summary, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(EntriesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	trend, err := f.GetCellValue(SummarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "no data for previous month", trend)
}

func TestXLSXExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewXLSXExporter(zap.NewNop()).Export(ctx, report.MonthlySummary{}, filepath.Join(t.TempDir(), "x.xlsx"))
	assert.ErrorIs(t, err, context.Canceled)
}
