package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/middleware"
	"github.com/krishkalaria12/snapvault/models"
	"github.com/krishkalaria12/snapvault/registry"
)

const defaultContentType = "application/octet-stream"

// UploadImage stores the multipart "file" field and records it for the caller.
func (h *Handler) UploadImage(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "Unable to read uploaded file")
	}
	defer src.Close()

	contentType := file.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	ctx := c.UserContext()
	storagePath, err := h.backend.Store(ctx, user.ID, file.Filename, src, contentType)
	if err != nil {
		return respondError(c, apperr.Upstream("Image upload failed", err))
	}

	image, err := h.images.Create(ctx, user.ID, storagePath)
	if err != nil {
		// the record is the only way to find the bytes again
		if delErr := h.backend.Delete(ctx, storagePath); delErr != nil {
			slog.WarnContext(ctx, "failed to remove orphaned upload", "path", storagePath, "error", delErr)
		}
		return respondError(c, err)
	}

	return c.JSON(h.imageRead(ctx, *image))
}

func (h *Handler) ListImages(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	images, err := h.images.ListForOwner(ctx, user.ID, page)
	if err != nil {
		return respondError(c, err)
	}

	reads := make([]models.ImageRead, 0, len(images))
	for _, img := range images {
		reads = append(reads, h.imageRead(ctx, img))
	}
	return c.JSON(reads)
}

func (h *Handler) DeleteImage(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.images.Delete(c.UserContext(), c.Params("id"), user.ID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetImageAnalysis returns the projected analysis of an image the caller owns.
func (h *Handler) GetImageAnalysis(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	image, err := h.images.Get(ctx, c.Params("id"), user.ID)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.analyses.Get(ctx, image.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// imageRead computes a fresh retrieval reference. Pending images and images
// whose reference cannot be produced get a null presigned_url.
func (h *Handler) imageRead(ctx context.Context, img models.Image) models.ImageRead {
	if img.Pending() {
		return models.NewImageRead(img, "")
	}

	ref, err := h.backend.RetrievalReference(ctx, img.StoragePath, h.opts.SignedURLTTL)
	if err != nil {
		slog.WarnContext(ctx, "failed to build retrieval reference", "image_id", img.ID, "error", err)
		ref = ""
	}
	return models.NewImageRead(img, ref)
}

func parsePage(c *fiber.Ctx) (registry.Page, error) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return registry.Page{}, err
	}
	limit, err := queryInt(c, "limit", registry.DefaultLimit)
	if err != nil {
		return registry.Page{}, err
	}

	if skip < 0 {
		return registry.Page{}, apperr.Validation("skip must be greater than or equal to 0")
	}
	if limit < 1 || limit > registry.MaxLimit {
		return registry.Page{}, apperr.Validation(fmt.Sprintf("limit must be between 1 and %d", registry.MaxLimit))
	}
	return registry.Page{Skip: skip, Limit: limit}, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(key + " must be an integer")
	}
	return v, nil
}
