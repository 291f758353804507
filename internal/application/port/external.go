package port

import (
	"context"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/report"
)

// ReceiptExtractor reads store, date and total from a receipt image.
// Implementations issue exactly one request per call and never retry.
// Failures are *ConfigurationError or *ExtractionError.
type ReceiptExtractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (entity.ReceiptData, error)
}

// DocumentRasterizer turns a multi-page document into a single image the
// extractor can read.
type DocumentRasterizer interface {
	Supports(mimeType string) bool
	Rasterize(ctx context.Context, document []byte) (image []byte, mimeType string, err error)
}

// ReportExporter writes a monthly summary to a file.
type ReportExporter interface {
	Export(ctx context.Context, summary report.MonthlySummary, path string) error
}
