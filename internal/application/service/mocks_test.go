package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// memStore is an in-memory port.RecordStore with failure injection.
type memStore struct {
	mu      sync.Mutex
	records map[string][]byte
	putErr  error
	getErr  error
	puts    int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.records[key]
	if !ok {
		return nil, port.ErrRecordNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.records[key] = append([]byte(nil), value...)
	s.puts++
	return nil
}

// mockExtractor implements port.ReceiptExtractor with testify/mock.
type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, image []byte, mimeType string) (entity.ReceiptData, error) {
	args := m.Called(ctx, image, mimeType)
	return args.Get(0).(entity.ReceiptData), args.Error(1)
}

// blockingExtractor waits until released or until ctx ends.
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func newBlockingExtractor() *blockingExtractor {
	return &blockingExtractor{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingExtractor) Extract(ctx context.Context, image []byte, mimeType string) (entity.ReceiptData, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.started <- struct{}{}
	select {
	case <-b.release:
		return entity.ReceiptData{StoreName: "Slow Mart", Date: "2024-05-03", Amount: 100}, nil
	case <-ctx.Done():
		return entity.ReceiptData{}, ctx.Err()
	}
}

func (b *blockingExtractor) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type stubRasterizer struct {
	err error
}

func (r *stubRasterizer) Supports(mimeType string) bool { return mimeType == "application/pdf" }

func (r *stubRasterizer) Rasterize(ctx context.Context, document []byte) ([]byte, string, error) {
	if r.err != nil {
		return nil, "", r.err
	}
	return []byte("jpeg-page"), "image/jpeg", nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
