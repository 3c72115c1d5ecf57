package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/krishkalaria12/snapvault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFilesystemBackend(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	backend := storage.NewLocalFilesystemBackend(root)
	ctx := context.Background()

	// root does not exist yet, Store creates it
	path, err := backend.Store(ctx, "owner-1", "cat.png", strings.NewReader("meow"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "cat.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "meow", string(data))

	ref, err := backend.RetrievalReference(ctx, path, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, path, ref)

	require.NoError(t, backend.Delete(ctx, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// already absent
	assert.NoError(t, backend.Delete(ctx, path))
}

func TestLocalFilesystemBackendLastWriteWins(t *testing.T) {
	backend := storage.NewLocalFilesystemBackend(t.TempDir())
	ctx := context.Background()

	first, err := backend.Store(ctx, "owner-1", "same.png", strings.NewReader("first"), "image/png")
	require.NoError(t, err)
	second, err := backend.Store(ctx, "owner-2", "same.png", strings.NewReader("second"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalFilesystemBackendSanitizesFilename(t *testing.T) {
	root := t.TempDir()
	backend := storage.NewLocalFilesystemBackend(root)
	ctx := context.Background()

	path, err := backend.Store(ctx, "owner-1", "../../escape.png", strings.NewReader("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "escape.png"), path)

	_, err = backend.Store(ctx, "owner-1", "", strings.NewReader("x"), "image/png")
	assert.Error(t, err)
}

func TestLocalFilesystemBackendDeleteFailure(t *testing.T) {
	root := t.TempDir()
	backend := storage.NewLocalFilesystemBackend(root)

	// a non-empty directory cannot be removed with os.Remove
	dir := filepath.Join(root, "dir")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "child"), 0o755))

	err := backend.Delete(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDelete)
}

func TestParseLocator(t *testing.T) {
	bucket, key, ok := storage.ParseLocator("gs://photos/images/a_b.png")
	assert.True(t, ok)
	assert.Equal(t, "photos", bucket)
	assert.Equal(t, "images/a_b.png", key)

	for _, p := range []string{"", "uploads/a.png", "gs://", "gs://bucket", "gs://bucket/", "s3://bucket/key"} {
		_, _, ok := storage.ParseLocator(p)
		assert.False(t, ok, p)
	}
}

func TestLocalFilesystemBackendRefusesObjectStorePaths(t *testing.T) {
	backend := storage.NewLocalFilesystemBackend(t.TempDir())
	ctx := context.Background()

	err := backend.Delete(ctx, "gs://photos/images/abc_cat.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDelete)

	_, err = backend.RetrievalReference(ctx, "gs://photos/images/abc_cat.png", time.Minute)
	assert.Error(t, err)
}
