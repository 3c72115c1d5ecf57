package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 50 * time.Second

type GCSOptions struct {
	Bucket string
	// Prefix is prepended to every object key, e.g. "images/".
	Prefix         string
	GoogleAccessID string
	// PrivateKey is a PEM service account key. Literal \n sequences are accepted.
	PrivateKey string
	TicketTTL  time.Duration
}

// GCSBackend stores images in a Google Cloud Storage bucket. Paths without the
// gs:// scheme are left to the fallback backend so older local records keep working.
type GCSBackend struct {
	cl         *storage.Client
	bucket     string
	prefix     string
	accessID   string
	privateKey []byte
	ticketTTL  time.Duration
	fallback   Backend
	now        func() time.Time
}

func NewGCSBackend(client *storage.Client, opts GCSOptions, fallback Backend) *GCSBackend {
	// Convert literal \n sequences back into real newlines for the private key.
	key := strings.ReplaceAll(opts.PrivateKey, `\n`, "\n")

	ttl := opts.TicketTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &GCSBackend{
		cl:         client,
		bucket:     opts.Bucket,
		prefix:     opts.Prefix,
		accessID:   opts.GoogleAccessID,
		privateKey: []byte(key),
		ticketTTL:  ttl,
		fallback:   fallback,
		now:        time.Now,
	}
}

func (b *GCSBackend) Locator(key string) string {
	return GCSScheme + b.bucket + "/" + key
}

func (b *GCSBackend) objectKey(filename string) (string, error) {
	name := cleanFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return b.prefix + uuid.NewString() + "_" + name, nil
}

// Store uploads an object with storage.Writer and returns its gs:// locator.
func (b *GCSBackend) Store(ctx context.Context, ownerID, filename string, data io.Reader, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	objectPath, err := b.objectKey(filename)
	if err != nil {
		return "", err
	}

	wc := b.cl.Bucket(b.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}

	slog.DebugContext(ctx, "uploaded image to bucket", "owner_id", ownerID, "bucket", b.bucket, "object", objectPath)
	return b.Locator(objectPath), nil
}

// IssueUploadTicket generates a V4 signed POST policy bounded by content type and size.
func (b *GCSBackend) IssueUploadTicket(ctx context.Context, req TicketRequest) (*UploadTicket, error) {
	if req.ContentType == "" {
		return nil, errors.New("content type is required")
	}
	if req.MaxBytes <= 0 {
		return nil, errors.New("max bytes must be positive")
	}

	key, err := b.objectKey(req.Filename)
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata["x-goog-meta-"+k] = v
	}

	expires := b.now().Add(b.ticketTTL)
	policy, err := storage.GenerateSignedPostPolicyV4(b.bucket, key, &storage.PostPolicyV4Options{
		GoogleAccessID: b.accessID,
		PrivateKey:     b.privateKey,
		Expires:        expires,
		Fields: &storage.PolicyV4Fields{
			ContentType: req.ContentType,
			Metadata:    metadata,
		},
		Conditions: []storage.PostPolicyV4Condition{
			storage.ConditionContentLengthRange(0, uint64(req.MaxBytes)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate signed post policy: %w", err)
	}

	slog.DebugContext(ctx, "issued upload ticket", "bucket", b.bucket, "object", key, "expires_at", expires)
	return &UploadTicket{
		URL:       policy.URL,
		Fields:    policy.Fields,
		Key:       key,
		ExpiresAt: expires,
	}, nil
}

// RetrievalReference returns a V4 signed GET URL for gs:// paths.
func (b *GCSBackend) RetrievalReference(ctx context.Context, storagePath string, ttl time.Duration) (string, error) {
	bucket, key, ok := ParseLocator(storagePath)
	if !ok {
		if b.fallback == nil {
			return storagePath, nil
		}
		return b.fallback.RetrievalReference(ctx, storagePath, ttl)
	}

	signedURL, err := storage.SignedURL(bucket, key, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        b.now().Add(ttl),
		GoogleAccessID: b.accessID,
		PrivateKey:     b.privateKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return signedURL, nil
}

func (b *GCSBackend) Delete(ctx context.Context, storagePath string) error {
	if storagePath == "" {
		return nil
	}

	bucket, key, ok := ParseLocator(storagePath)
	if !ok {
		if b.fallback == nil {
			return fmt.Errorf("%w: unsupported storage path %q", ErrDelete, storagePath)
		}
		return b.fallback.Delete(ctx, storagePath)
	}

	err := b.cl.Bucket(bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}

	slog.DebugContext(ctx, "removed image from bucket", "bucket", bucket, "object", key)
	return nil
}
