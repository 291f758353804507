package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/event"
	"github.com/garyjia/receipt-ledger/internal/domain/workflow"
)

// DefaultExtractionTimeout bounds a single extraction call.
const DefaultExtractionTimeout = 60 * time.Second

// ErrCaptureInProgress is returned when a capture is requested while
// another one is still analyzing. No extraction request is issued.
var ErrCaptureInProgress = errors.New("a receipt is already being analyzed")

// Draft is the outcome of a capture: receipt data awaiting confirmation.
// Failure is set when the data came from the fallback policy; it is kept
// only so the caller can tell the user why the fields are blank.
type Draft struct {
	Data    entity.ReceiptData
	Failure error
}

// Extracted reports whether the draft came from a successful extraction.
func (d Draft) Extracted() bool {
	return d.Failure == nil
}

// CaptureService runs the image → draft pipeline.
type CaptureService interface {
	// Capture extracts a draft from image. Every call that is admitted
	// returns exactly one draft and a nil error; extraction failures are
	// folded into a fallback draft. The only error is ErrCaptureInProgress.
	Capture(ctx context.Context, image []byte, mimeType string) (Draft, error)

	// State reports whether a capture is running.
	State() workflow.State
}

// CaptureOption configures a CaptureService
type CaptureOption func(*captureService)

// WithTimeout sets the per-call extraction timeout. Zero disables it.
func WithTimeout(d time.Duration) CaptureOption {
	return func(s *captureService) { s.timeout = d }
}

// WithRasterizer converts documents such as PDFs to an image first.
func WithRasterizer(r port.DocumentRasterizer) CaptureOption {
	return func(s *captureService) { s.rasterizer = r }
}

// WithCaptureClock sets the clock used for fallback drafts.
func WithCaptureClock(c Clock) CaptureOption {
	return func(s *captureService) { s.fallback = NewFallbackPolicy(c) }
}

type captureService struct {
	extractor  port.ReceiptExtractor
	rasterizer port.DocumentRasterizer
	fallback   FallbackPolicy
	machine    workflow.StateMachine
	dispatcher dispatcher.Dispatcher
	logger     Logger
	timeout    time.Duration
}

// NewCaptureService creates a capture pipeline around extractor. disp may be nil.
func NewCaptureService(extractor port.ReceiptExtractor, disp dispatcher.Dispatcher, logger Logger, opts ...CaptureOption) CaptureService {
	if logger == nil {
		logger = nopLogger{}
	}
	s := &captureService{
		extractor:  extractor,
		fallback:   NewFallbackPolicy(time.Now),
		machine:    workflow.NewCaptureMachine(),
		dispatcher: disp,
		logger:     logger,
		timeout:    DefaultExtractionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *captureService) State() workflow.State {
	return s.machine.State()
}

func (s *captureService) Capture(ctx context.Context, image []byte, mimeType string) (Draft, error) {
	if err := s.machine.Fire(workflow.TriggerStartAnalysis); err != nil {
		s.logger.Warn("Capture rejected, analysis in progress")
		return Draft{}, ErrCaptureInProgress
	}
	defer func() {
		if err := s.machine.Fire(workflow.TriggerFinishAnalysis); err != nil {
			s.logger.Error("Failed to leave analyzing state", "error", err)
		}
	}()

	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeCaptureStarted, map[string]interface{}{
		event.KeyMimeType: mimeType,
	}))

	var draft Draft
	data, err := s.extract(ctx, image, mimeType)
	if err != nil {
		s.logger.Warn("Extraction failed, using empty draft", "mime_type", mimeType, "error", err)
		draft = Draft{Data: s.fallback.OnFailure(err), Failure: err}
		publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeCaptureFailed, map[string]interface{}{
			event.KeyReason: failureReason(err),
			event.KeyError:  err.Error(),
		}))
	} else {
		s.logger.Info("Receipt extracted", "store", data.StoreName, "date", data.Date, "amount", data.Amount)
		draft = Draft{Data: data}
	}

	publish(ctx, s.dispatcher, s.logger, event.NewEvent(event.TypeDraftReady, map[string]interface{}{
		event.KeyDraft: draft.Data,
	}))
	return draft, nil
}

// extract returns validated data or a *ConfigurationError / *ExtractionError.
func (s *captureService) extract(ctx context.Context, image []byte, mimeType string) (entity.ReceiptData, error) {
	if s.extractor == nil {
		return entity.ReceiptData{}, &port.ConfigurationError{Provider: "extraction", Setting: "extraction.provider"}
	}

	if s.rasterizer != nil && s.rasterizer.Supports(mimeType) {
		page, pageType, err := s.rasterizer.Rasterize(ctx, image)
		if err != nil {
			return entity.ReceiptData{}, port.NewExtractionError("document", port.ExtractionMalformed, err)
		}
		image, mimeType = page, pageType
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	data, err := s.extractor.Extract(ctx, image, mimeType)
	if err != nil {
		return entity.ReceiptData{}, classify(ctx, err)
	}
	if err := data.Validate(); err != nil {
		return entity.ReceiptData{}, port.NewExtractionError("validation", port.ExtractionMalformed, err)
	}
	return data, nil
}

// classify makes sure every failure leaving extract is typed. Untyped
// errors from an extractor become service errors, or timeouts when the
// deadline is what stopped them.
func classify(ctx context.Context, err error) error {
	if port.IsConfigurationError(err) {
		return err
	}
	var ee *port.ExtractionError
	if errors.As(err, &ee) {
		if ee.Kind != port.ExtractionTimeout && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return port.NewExtractionError(ee.Provider, port.ExtractionTimeout, err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return port.NewExtractionError("extraction", port.ExtractionTimeout, err)
	}
	return port.NewExtractionError("extraction", port.ExtractionService, fmt.Errorf("untyped failure: %w", err))
}

// failureReason is the short reason carried on capture.failed events.
func failureReason(err error) string {
	if port.IsConfigurationError(err) {
		return "configuration"
	}
	var ee *port.ExtractionError
	if errors.As(err, &ee) {
		return string(ee.Kind)
	}
	return "unknown"
}
