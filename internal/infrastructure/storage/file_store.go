package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/application/port"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FileRecordStore implements port.RecordStore with one JSON file per key
// under a base directory.
type FileRecordStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewFileRecordStore creates a store rooted at baseDir. The directory is
// created on the first write.
func NewFileRecordStore(baseDir string, logger *zap.Logger) *FileRecordStore {
	return &FileRecordStore{baseDir: baseDir, logger: logger}
}

// Get reads the record stored under key.
func (s *FileRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, port.ErrRecordNotFound
	}
	if err != nil {
		s.logger.Error("Failed to read record", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return content, nil
}

// Put replaces the record under key. The value is written to a temporary
// file in the same directory, synced, then renamed over the old file.
func (s *FileRecordStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close record: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		cleanup()
		s.logger.Error("Failed to replace record", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to replace record: %w", err)
	}

	s.logger.Debug("Record saved", zap.String("path", fullPath), zap.Int("size", len(value)))
	return nil
}

// Path returns the file that holds key.
func (s *FileRecordStore) Path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

func (s *FileRecordStore) pathFor(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid record key %q", key)
	}
	fullPath := s.Path(key)

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("invalid base directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", key)
	}
	return fullPath, nil
}
