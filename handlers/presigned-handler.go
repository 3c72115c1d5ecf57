package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/middleware"
	"github.com/krishkalaria12/snapvault/storage"
)

const imageIDMetadataKey = "image-id"

var errNoPresigner = apperr.Validation("Presigned uploads require object storage")

// GeneratePresignedURL reserves a pending image and returns an upload ticket
// the client posts the bytes with.
func (h *Handler) GeneratePresignedURL(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	filename := c.Query("filename")
	contentType := c.Query("content_type")
	if filename == "" || contentType == "" {
		return badRequest(c, "filename and content_type are required")
	}

	presigner, ok := h.backend.(storage.Presigner)
	if !ok {
		return respondError(c, errNoPresigner)
	}

	ctx := c.UserContext()
	pending, err := h.images.CreatePending(ctx, user.ID)
	if err != nil {
		return respondError(c, err)
	}

	ticket, err := presigner.IssueUploadTicket(ctx, storage.TicketRequest{
		Filename:    filename,
		ContentType: contentType,
		MaxBytes:    h.opts.PresignedMaxBytes,
		Metadata:    map[string]string{imageIDMetadataKey: pending.ID},
	})
	if err == nil {
		err = h.images.AttachUploadKey(ctx, pending.ID, user.ID, ticket.Key)
	}
	if err != nil {
		if discardErr := h.images.Discard(ctx, pending.ID, user.ID); discardErr != nil {
			slog.WarnContext(ctx, "failed to discard pending image", "image_id", pending.ID, "error", discardErr)
		}
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Upstream("Failed to generate presigned URL", err)
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"image_id": pending.ID,
		"presigned_post": fiber.Map{
			"url":    ticket.URL,
			"fields": ticket.Fields,
		},
		"s3_key":     ticket.Key,
		"expires_at": ticket.ExpiresAt,
	})
}

// ConfirmUpload records the object key of a finished presigned upload. Only the
// key issued for the image is accepted. The object store is not asked whether
// the object exists.
func (h *Handler) ConfirmUpload(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	imageID := c.Query("image_id")
	key := c.Query("s3_key")
	if imageID == "" || key == "" {
		return badRequest(c, "image_id and s3_key are required")
	}

	presigner, ok := h.backend.(storage.Presigner)
	if !ok {
		return respondError(c, errNoPresigner)
	}

	ctx := c.UserContext()
	image, err := h.images.Finalize(ctx, imageID, user.ID, key, presigner.Locator(key))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(h.imageRead(ctx, *image))
}
