package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	handler "github.com/krishkalaria12/snapvault/handlers"
	"github.com/krishkalaria12/snapvault/middleware"
)

// NewApp builds the fiber app with the shared error envelope and body limit.
func NewApp(bodyLimit int) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "snapvault",
		BodyLimit:    bodyLimit,
		ErrorHandler: handler.ErrorHandler,
	})
}

func SetupRoutes(app *fiber.App, h *handler.Handler) {
	app.Use(requestid.New(), middleware.RequestLogger(), recover.New())

	app.Get("/healthz", h.Healthz)

	requireAuth := middleware.RequireAuth(h.Auth())

	// Auth
	auth := app.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Get("/me", requireAuth, h.Me)

	// Images
	image := app.Group("/image", requireAuth)
	image.Post("/upload-image", h.UploadImage)
	image.Get("/images", h.ListImages)
	image.Delete("/images/:id", h.DeleteImage)
	image.Get("/get-image-analysis/:id", h.GetImageAnalysis)

	// Presigned uploads
	presigned := app.Group("/s3", requireAuth)
	presigned.Post("/generate-presigned-url", h.GeneratePresignedURL)
	presigned.Post("/upload-image-s3", h.ConfirmUpload)
}
