package port

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by RecordStore.Get when no record exists
// under the key.
var ErrRecordNotFound = errors.New("record not found")

// RecordStore is durable key/value storage holding whole records.
// Put replaces the record atomically: readers see the old value or the
// new one, never a mix.
type RecordStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
