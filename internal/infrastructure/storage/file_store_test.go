package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/application/port"
)

func TestFileRecordStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := NewFileRecordStore(dir, zap.NewNop())
	ctx := context.Background()

	_, err := s.Get(ctx, "expenses")
	require.ErrorIs(t, err, port.ErrRecordNotFound)

	require.NoError(t, s.Put(ctx, "expenses", []byte(`[{"id":"a"}]`)))
	got, err := s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, s.Put(ctx, "expenses", []byte(`[]`)))
	got, err = s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	assert.FileExists(t, filepath.Join(dir, "expenses.json"))
}

func TestFileRecordStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileRecordStore(dir, zap.NewNop())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(context.Background(), "expenses", []byte(`[]`)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "expenses.json", entries[0].Name())
}

func TestFileRecordStore_RejectsUnsafeKeys(t *testing.T) {
	s := NewFileRecordStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".hidden", "with space"} {
		t.Run(key, func(t *testing.T) {
			assert.Error(t, s.Put(ctx, key, []byte("x")))
			_, err := s.Get(ctx, key)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, port.ErrRecordNotFound)
		})
	}
}

func TestFileRecordStore_CancelledContext(t *testing.T) {
	s := NewFileRecordStore(t.TempDir(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "expenses", []byte(`[]`)), context.Canceled)
}

func TestMemoryRecordStore(t *testing.T) {
	s := NewMemoryRecordStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "expenses")
	require.ErrorIs(t, err, port.ErrRecordNotFound)

	value := []byte(`[1]`)
	require.NoError(t, s.Put(ctx, "expenses", value))
	value[1] = '2'

	got, err := s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got), "store keeps its own copy")
}
