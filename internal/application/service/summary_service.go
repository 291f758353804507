package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/month"
	"github.com/garyjia/receipt-ledger/internal/domain/report"
)

// ErrNoExporter is returned by Export when no exporter is configured.
var ErrNoExporter = errors.New("no report exporter configured")

// SummaryService answers monthly questions about the ledger.
type SummaryService interface {
	// Summary aggregates the given month against the month before it.
	Summary(c month.Cursor) report.MonthlySummary

	// Export writes the summary for c to path.
	Export(ctx context.Context, c month.Cursor, path string) error
}

type summaryService struct {
	ledger   LedgerService
	exporter port.ReportExporter
	logger   Logger
}

// NewSummaryService creates a summary service over ledger. exporter may be nil.
func NewSummaryService(ledger LedgerService, exporter port.ReportExporter, logger Logger) SummaryService {
	if logger == nil {
		logger = nopLogger{}
	}
	return &summaryService{ledger: ledger, exporter: exporter, logger: logger}
}

func (s *summaryService) Summary(c month.Cursor) report.MonthlySummary {
	return report.Summarize(s.ledger.Entries(), c)
}

func (s *summaryService) Export(ctx context.Context, c month.Cursor, path string) error {
	if s.exporter == nil {
		return ErrNoExporter
	}
	summary := s.Summary(c)
	if err := s.exporter.Export(ctx, summary, path); err != nil {
		return fmt.Errorf("failed to export %s: %w", c.Key(), err)
	}
	s.logger.Info("Monthly report exported", "month", c.Key(), "path", path, "count", summary.Count())
	return nil
}
