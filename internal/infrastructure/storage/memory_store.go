package storage

import (
	"context"
	"sync"

	"github.com/garyjia/receipt-ledger/internal/application/port"
)

// MemoryRecordStore keeps records in process memory. Nothing survives a
// restart; it backs the "memory" ledger backend.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryRecordStore creates an empty store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string][]byte)}
}

func (s *MemoryRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, port.ErrRecordNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryRecordStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = append([]byte(nil), value...)
	return nil
}
