package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LocalFilesystemBackend keeps images under a root directory that a static
// file layer serves as-is. Files with the same name overwrite each other.
type LocalFilesystemBackend struct {
	root string
}

func NewLocalFilesystemBackend(root string) *LocalFilesystemBackend {
	return &LocalFilesystemBackend{root: root}
}

func (b *LocalFilesystemBackend) Root() string {
	return b.root
}

func (b *LocalFilesystemBackend) Store(ctx context.Context, ownerID, filename string, data io.Reader, contentType string) (string, error) {
	name := cleanFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	filePath := filepath.Join(b.root, name)
	f, err := createFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(f, data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	slog.DebugContext(ctx, "stored image on local disk", "owner_id", ownerID, "path", filePath, "size", size)
	return filePath, nil
}

// RetrievalReference returns local paths unchanged. Paths owned by another
// backend, such as gs:// locators, are refused.
func (b *LocalFilesystemBackend) RetrievalReference(_ context.Context, storagePath string, _ time.Duration) (string, error) {
	if hasScheme(storagePath) {
		return "", fmt.Errorf("unsupported storage path %q", storagePath)
	}
	return storagePath, nil
}

// Delete removes a local file. A gs:// or other scheme path fails with
// ErrDelete so the record is never dropped while the object still exists.
func (b *LocalFilesystemBackend) Delete(ctx context.Context, storagePath string) error {
	if storagePath == "" {
		return nil
	}
	if hasScheme(storagePath) {
		return fmt.Errorf("%w: unsupported storage path %q", ErrDelete, storagePath)
	}
	if err := os.Remove(filepath.Clean(storagePath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}
	slog.DebugContext(ctx, "removed image from local disk", "path", storagePath)
	return nil
}

func createFile(p string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	return os.Create(p)
}
