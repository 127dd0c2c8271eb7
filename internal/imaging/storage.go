package imaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// BlobStorage keeps the decoded image payloads. Metadata lives in the
// relational store, the raw bytes do not.
type BlobStorage interface {
	Store(ctx context.Context, folder, oid string, data []byte) error
	Load(ctx context.Context, folder, oid string) ([]byte, error)
}

// FilesystemStorage writes blobs below a root directory, one folder
// per transaction (stationary captures share a fixed folder).
type FilesystemStorage struct {
	root   string
	logger *zap.Logger
}

func NewFilesystemStorage(root string, logger *zap.Logger) *FilesystemStorage {
	return &FilesystemStorage{root: root, logger: logger}
}

func (s *FilesystemStorage) Store(_ context.Context, folder, oid string, data []byte) error {
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, oid)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	s.logger.Debug("Stored image blob",
		zap.String("path", path),
		zap.Int("size_bytes", len(data)),
	)
	return nil
}

func (s *FilesystemStorage) Load(_ context.Context, folder, oid string) ([]byte, error) {
	path := filepath.Join(s.root, folder, oid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}
