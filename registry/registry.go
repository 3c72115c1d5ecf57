package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/models"
	"github.com/krishkalaria12/snapvault/storage"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	// ErrNotFound covers both missing images and images owned by someone else.
	ErrNotFound = apperr.NotFound("image not found")
	// ErrUploadKeyMismatch rejects a confirmation for a key other than the one issued for the image.
	ErrUploadKeyMismatch = apperr.Validation("upload key does not match the issued upload")
	// ErrStorageDeleteFailed means the bytes could not be removed and the record was kept.
	ErrStorageDeleteFailed = errors.New("storage delete failed")
)

type Page struct {
	Skip  int
	Limit int
}

// Normalize applies the default limit and clamps out-of-range values.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Registry tracks image ownership and lifecycle independent of where the bytes live.
type Registry struct {
	db      *gorm.DB
	backend storage.Backend
}

func New(db *gorm.DB, backend storage.Backend) *Registry {
	return &Registry{
		db:      db,
		backend: backend,
	}
}

// Create records an image whose bytes are already stored.
func (r *Registry) Create(ctx context.Context, ownerID, storagePath string) (*models.Image, error) {
	image := &models.Image{UserID: ownerID, StoragePath: storagePath}
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return nil, apperr.Upstream("failed to save image record", err)
	}
	return image, nil
}

// CreatePending records an image with an empty path so a presigned upload has an id to confirm later.
func (r *Registry) CreatePending(ctx context.Context, ownerID string) (*models.Image, error) {
	return r.Create(ctx, ownerID, "")
}

// Get looks an image up by id within the owner's images only.
func (r *Registry) Get(ctx context.Context, imageID, ownerID string) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", imageID, ownerID).
		First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Upstream("failed to look up image", err)
	}
	return &image, nil
}

// AttachUploadKey records the object key issued for a pending image.
func (r *Registry) AttachUploadKey(ctx context.Context, imageID, ownerID, key string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ? AND user_id = ? AND file_path = ''", imageID, ownerID).
		Update("upload_key", key)
	if result.Error != nil {
		return apperr.Upstream("failed to update image record", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Finalize sets the storage path of an owned image uploaded under key. The
// key must be the one attached when the ticket was issued. Repeating it
// overwrites the path.
func (r *Registry) Finalize(ctx context.Context, imageID, ownerID, key, storagePath string) (*models.Image, error) {
	image, err := r.Get(ctx, imageID, ownerID)
	if err != nil {
		return nil, err
	}
	if image.UploadKey == "" || image.UploadKey != key {
		return nil, ErrUploadKeyMismatch
	}

	image.StoragePath = storagePath
	if err := r.db.WithContext(ctx).Model(image).Update("file_path", storagePath).Error; err != nil {
		return nil, apperr.Upstream("failed to update image record", err)
	}

	slog.InfoContext(ctx, "image upload confirmed", "image_id", image.ID, "owner_id", ownerID)
	return image, nil
}

// ListForOwner returns the owner's images oldest first.
func (r *Registry) ListForOwner(ctx context.Context, ownerID string, page Page) ([]models.Image, error) {
	page = page.Normalize()

	images := make([]models.Image, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&images).Error
	if err != nil {
		return nil, apperr.Upstream("failed to list images", err)
	}
	return images, nil
}

// Delete removes the stored bytes and then the record. If the bytes cannot be
// removed the record is kept so it never points at bytes that still exist unreferenced.
func (r *Registry) Delete(ctx context.Context, imageID, ownerID string) error {
	image, err := r.Get(ctx, imageID, ownerID)
	if err != nil {
		return err
	}

	if !image.Pending() {
		if err := r.backend.Delete(ctx, image.StoragePath); err != nil {
			slog.ErrorContext(ctx, "failed to delete image bytes", "image_id", image.ID, "path", image.StoragePath, "error", err)
			return apperr.Upstream("failed to delete stored image", errors.Join(ErrStorageDeleteFailed, err))
		}
	}

	return r.remove(ctx, image)
}

// Discard drops a pending record, used when its upload ticket could not be issued.
func (r *Registry) Discard(ctx context.Context, imageID, ownerID string) error {
	image, err := r.Get(ctx, imageID, ownerID)
	if err != nil {
		return err
	}
	if !image.Pending() {
		return apperr.Validation("image is not pending")
	}
	return r.remove(ctx, image)
}

func (r *Registry) remove(ctx context.Context, image *models.Image) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", image.ID, image.UserID).
		Delete(&models.Image{})
	if result.Error != nil {
		return apperr.Upstream("failed to delete image record", result.Error)
	}
	if result.RowsAffected == 0 {
		// removed concurrently
		return ErrNotFound
	}

	slog.InfoContext(ctx, "image deleted", "image_id", image.ID, "owner_id", image.UserID)
	return nil
}
