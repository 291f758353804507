package extraction

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/pkg/utils"
)

// ErrEmptyImage is wrapped when Extract is called without image bytes.
var ErrEmptyImage = errors.New("image is empty")

// CheckInput rejects requests that cannot succeed before any call is made.
func CheckInput(provider string, image []byte, mimeType string) error {
	if len(image) == 0 {
		return port.NewExtractionError(provider, port.ExtractionMalformed, ErrEmptyImage)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return port.NewExtractionError(provider, port.ExtractionMalformed,
			fmt.Errorf("unsupported mime type %q", mimeType))
	}
	return nil
}

// Decode validates response text against the receipt schema. Empty text
// is ExtractionEmpty; anything that does not match is ExtractionMalformed.
func Decode(provider, text string) (entity.ReceiptData, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return entity.ReceiptData{}, port.NewExtractionError(provider, port.ExtractionEmpty,
			errors.New("no response text"))
	}

	data, err := entity.DecodeReceiptData([]byte(text))
	if err != nil {
		return entity.ReceiptData{}, port.NewExtractionError(provider, port.ExtractionMalformed, err)
	}
	data.StoreName = utils.SanitizeString(data.StoreName)
	return data, nil
}

// ClassifyTransport maps a failed call onto an extraction error.
func ClassifyTransport(ctx context.Context, provider string, err error) *port.ExtractionError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return port.NewExtractionError(provider, port.ExtractionTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return port.NewExtractionError(provider, port.ExtractionTimeout, err)
		}
		return port.NewExtractionError(provider, port.ExtractionNetwork, err)
	}
	return port.NewExtractionError(provider, port.ExtractionService, err)
}
