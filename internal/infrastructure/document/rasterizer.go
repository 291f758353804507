// Package document renders PDF receipts into images for extraction.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// MimePDF is the only document type the rasterizer accepts.
const MimePDF = "application/pdf"

const (
	defaultDPI     = 150
	defaultQuality = 85
)

// ErrEmptyDocument is returned when there is nothing to render.
var ErrEmptyDocument = errors.New("document is empty")

// PDFRasterizer renders the first page of a PDF to JPEG using MuPDF.
type PDFRasterizer struct {
	dpi     float64
	quality int
	logger  *zap.Logger
}

// NewPDFRasterizer creates a rasterizer. A non-positive dpi uses the default.
func NewPDFRasterizer(dpi float64, logger *zap.Logger) *PDFRasterizer {
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return &PDFRasterizer{dpi: dpi, quality: defaultQuality, logger: logger}
}

// Supports reports whether mimeType is a PDF.
func (r *PDFRasterizer) Supports(mimeType string) bool {
	return mimeType == MimePDF
}

// Rasterize returns the first page of document as a JPEG image.
func (r *PDFRasterizer) Rasterize(ctx context.Context, document []byte) ([]byte, string, error) {
	if len(document) == 0 {
		return nil, "", ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, "", fmt.Errorf("PDF has no pages")
	}
	r.logger.Debug("Rendering PDF receipt", zap.Int("total_pages", pageCount), zap.Float64("dpi", r.dpi))

	img, err := doc.ImageDPI(0, r.dpi)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render page: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode page to JPEG: %w", err)
	}

	r.logger.Info("Rendered PDF receipt", zap.Int("image_size", buf.Len()))
	return buf.Bytes(), "image/jpeg", nil
}
