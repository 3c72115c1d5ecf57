package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ErrDelete marks a failed removal of stored bytes, as opposed to a missing record.
var ErrDelete = errors.New("storage delete failed")

// Backend abstracts where image bytes live. Implementations are chosen once at startup.
type Backend interface {
	// Store writes the bytes and returns the storage path to record on the image.
	Store(ctx context.Context, ownerID, filename string, data io.Reader, contentType string) (string, error)
	// RetrievalReference turns a storage path into something a client can fetch.
	RetrievalReference(ctx context.Context, storagePath string, ttl time.Duration) (string, error)
	// Delete removes the bytes. Already-absent bytes are not an error.
	Delete(ctx context.Context, storagePath string) error
}

// Presigner is implemented by backends that let clients upload directly.
type Presigner interface {
	IssueUploadTicket(ctx context.Context, req TicketRequest) (*UploadTicket, error)
	// Locator returns the storage path for an object key uploaded with a ticket.
	Locator(key string) string
}

type TicketRequest struct {
	Filename    string
	ContentType string
	MaxBytes    int64
	// Metadata is attached to the uploaded object and enforced by the policy.
	Metadata map[string]string
}

// UploadTicket is a time-boxed form the client posts to the object store.
type UploadTicket struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	Key       string            `json:"-"`
	ExpiresAt time.Time         `json:"expires_at"`
}

const GCSScheme = "gs://"

// ParseLocator splits a gs://bucket/key storage path.
func ParseLocator(storagePath string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(storagePath, GCSScheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// hasScheme reports whether a storage path is a locator like gs://bucket/key rather than a local path.
func hasScheme(storagePath string) bool {
	return strings.Contains(storagePath, "://")
}

// cleanFilename keeps only the base name so uploads cannot escape their directory.
func cleanFilename(filename string) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, "\\", "/")))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}
