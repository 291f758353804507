package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/event"
	"github.com/garyjia/receipt-ledger/internal/domain/workflow"
)

var today = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)

func emptyDraft() entity.ReceiptData {
	return entity.ReceiptData{StoreName: "", Amount: 0, Date: "2024-06-14"}
}

func TestFallbackPolicy(t *testing.T) {
	p := NewFallbackPolicy(fixedClock(today))
	assert.Equal(t, emptyDraft(), p.OnFailure(errors.New("anything")))
	assert.Equal(t, emptyDraft(), p.OnFailure(nil))
}

func TestCapture_Success(t *testing.T) {
	ext := &mockExtractor{}
	want := entity.ReceiptData{StoreName: "Lawson", Date: "2024-06-10", Amount: 540}
	ext.On("Extract", mock.Anything, []byte("img"), "image/jpeg").Return(want, nil).Once()

	svc := NewCaptureService(ext, nil, &mockLogger{}, WithCaptureClock(fixedClock(today)))
	draft, err := svc.Capture(context.Background(), []byte("img"), "image/jpeg")

	require.NoError(t, err)
	assert.True(t, draft.Extracted())
	assert.Equal(t, want, draft.Data)
	assert.Equal(t, workflow.StateIdle, svc.State())
	ext.AssertExpectations(t)
}

func TestCapture_FailuresFallBack(t *testing.T) {
	tests := []struct {
		name       string
		data       entity.ReceiptData
		err        error
		wantConfig bool
		wantKind   port.ExtractionKind
	}{
		{
			name:       "missing credential",
			err:        &port.ConfigurationError{Provider: "gemini", Setting: "extraction.api_key"},
			wantConfig: true,
		},
		{
			name:     "malformed response",
			err:      port.NewExtractionError("gemini", port.ExtractionMalformed, errors.New("invalid character 'I'")),
			wantKind: port.ExtractionMalformed,
		},
		{
			name:     "network",
			err:      port.NewExtractionError("gemini", port.ExtractionNetwork, errors.New("connection refused")),
			wantKind: port.ExtractionNetwork,
		},
		{
			name:     "untyped error",
			err:      errors.New("surprise"),
			wantKind: port.ExtractionService,
		},
		{
			name:     "invalid data from extractor",
			data:     entity.ReceiptData{StoreName: "X", Date: "2024-13-45", Amount: 3},
			wantKind: port.ExtractionMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &mockExtractor{}
			ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(tt.data, tt.err).Once()
			svc := NewCaptureService(ext, nil, &mockLogger{}, WithCaptureClock(fixedClock(today)))

			draft, err := svc.Capture(context.Background(), []byte("img"), "image/png")

			require.NoError(t, err)
			assert.False(t, draft.Extracted())
			assert.Equal(t, emptyDraft(), draft.Data)
			if tt.wantConfig {
				assert.True(t, port.IsConfigurationError(draft.Failure))
			} else {
				var ee *port.ExtractionError
				require.ErrorAs(t, draft.Failure, &ee)
				assert.Equal(t, tt.wantKind, ee.Kind)
			}
			assert.Equal(t, workflow.StateIdle, svc.State())
			ext.AssertNumberOfCalls(t, "Extract", 1)
		})
	}
}

func TestCapture_NoExtractorIsConfigurationError(t *testing.T) {
	svc := NewCaptureService(nil, nil, &mockLogger{}, WithCaptureClock(fixedClock(today)))
	draft, err := svc.Capture(context.Background(), []byte("img"), "image/png")

	require.NoError(t, err)
	assert.True(t, port.IsConfigurationError(draft.Failure))
	assert.Equal(t, emptyDraft(), draft.Data)
}

func TestCapture_Timeout(t *testing.T) {
	ext := newBlockingExtractor()
	svc := NewCaptureService(ext, nil, &mockLogger{},
		WithTimeout(20*time.Millisecond),
		WithCaptureClock(fixedClock(today)))

	draft, err := svc.Capture(context.Background(), []byte("img"), "image/jpeg")

	require.NoError(t, err)
	var ee *port.ExtractionError
	require.ErrorAs(t, draft.Failure, &ee)
	assert.Equal(t, port.ExtractionTimeout, ee.Kind)
	assert.Equal(t, emptyDraft(), draft.Data)
	assert.Equal(t, workflow.StateIdle, svc.State())
}

func TestCapture_ConcurrentCaptureIsRejected(t *testing.T) {
	ext := newBlockingExtractor()
	svc := NewCaptureService(ext, nil, &mockLogger{}, WithTimeout(0))

	var wg sync.WaitGroup
	var first Draft
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = svc.Capture(context.Background(), []byte("img"), "image/jpeg")
	}()

	<-ext.started
	assert.Equal(t, workflow.StateAnalyzing, svc.State())

	_, err := svc.Capture(context.Background(), []byte("img2"), "image/jpeg")
	assert.ErrorIs(t, err, ErrCaptureInProgress)

	close(ext.release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.True(t, first.Extracted())
	assert.Equal(t, 1, ext.Calls())
	assert.Equal(t, workflow.StateIdle, svc.State())
}

func TestCapture_RasterizesDocuments(t *testing.T) {
	ext := &mockExtractor{}
	want := entity.ReceiptData{StoreName: "Print Shop", Date: "2024-06-01", Amount: 2000}
	ext.On("Extract", mock.Anything, []byte("jpeg-page"), "image/jpeg").Return(want, nil).Once()

	svc := NewCaptureService(ext, nil, &mockLogger{}, WithRasterizer(&stubRasterizer{}))
	draft, err := svc.Capture(context.Background(), []byte("%PDF-1.7"), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, want, draft.Data)
	ext.AssertExpectations(t)
}

func TestCapture_RasterizerFailureFallsBack(t *testing.T) {
	ext := &mockExtractor{}
	svc := NewCaptureService(ext, nil, &mockLogger{},
		WithRasterizer(&stubRasterizer{err: errors.New("not a pdf")}),
		WithCaptureClock(fixedClock(today)))

	draft, err := svc.Capture(context.Background(), []byte("junk"), "application/pdf")

	require.NoError(t, err)
	assert.True(t, port.IsExtractionError(draft.Failure))
	assert.Equal(t, emptyDraft(), draft.Data)
	ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestCapture_EmitsExactlyOneDraft(t *testing.T) {
	outcomes := map[string]error{
		"success": nil,
		"failure": port.NewExtractionError("gemini", port.ExtractionEmpty, nil),
	}

	for name, extractErr := range outcomes {
		t.Run(name, func(t *testing.T) {
			disp := dispatcher.NewDispatcher()
			var drafts, failures int
			disp.Subscribe(event.TypeDraftReady, func(ctx context.Context, evt *event.Event) error {
				drafts++
				return nil
			})
			disp.Subscribe(event.TypeCaptureFailed, func(ctx context.Context, evt *event.Event) error {
				failures++
				assert.Equal(t, "empty", evt.GetPayloadString(event.KeyReason))
				return nil
			})

			ext := &mockExtractor{}
			ext.On("Extract", mock.Anything, mock.Anything, mock.Anything).
				Return(entity.ReceiptData{StoreName: "A", Date: "2024-06-01", Amount: 1}, extractErr)

			svc := NewCaptureService(ext, disp, &mockLogger{})
			_, err := svc.Capture(context.Background(), []byte("img"), "image/jpeg")
			require.NoError(t, err)

			assert.Equal(t, 1, drafts)
			if extractErr == nil {
				assert.Zero(t, failures)
			} else {
				assert.Equal(t, 1, failures)
			}
		})
	}
}
