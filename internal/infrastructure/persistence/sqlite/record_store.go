package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/application/port"
)

// RecordStore implements port.RecordStore on the records table.
type RecordStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecordStore creates a record store over an open, migrated database.
func NewRecordStore(db *sql.DB, logger *zap.Logger) *RecordStore {
	return &RecordStore{db: db, logger: logger}
}

// Get reads the value stored under key.
func (s *RecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRecordNotFound
	}
	if err != nil {
		s.logger.Error("Failed to read record", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	return value, nil
}

// Put replaces the value under key in a single statement.
func (s *RecordStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		s.logger.Error("Failed to write record", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	s.logger.Debug("Record saved", zap.String("key", key), zap.Int("size", len(value)))
	return nil
}
