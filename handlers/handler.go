package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snapvault/analysis"
	"github.com/krishkalaria12/snapvault/auth"
	"github.com/krishkalaria12/snapvault/registry"
	"github.com/krishkalaria12/snapvault/storage"
)

type Options struct {
	// SignedURLTTL bounds the lifetime of retrieval references returned to clients.
	SignedURLTTL time.Duration
	// PresignedMaxBytes is the upper bound enforced by upload tickets.
	PresignedMaxBytes int64
}

// Handler serves the HTTP API. All dependencies are built once at startup.
type Handler struct {
	auth     *auth.Service
	images   *registry.Registry
	backend  storage.Backend
	analyses *analysis.Lookup
	opts     Options
}

func New(authService *auth.Service, images *registry.Registry, backend storage.Backend, analyses *analysis.Lookup, opts Options) *Handler {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = time.Hour
	}
	if opts.PresignedMaxBytes <= 0 {
		opts.PresignedMaxBytes = 10 << 20
	}
	return &Handler{
		auth:     authService,
		images:   images,
		backend:  backend,
		analyses: analyses,
		opts:     opts,
	}
}

// Auth exposes the service the auth middleware resolves tokens with.
func (h *Handler) Auth() *auth.Service {
	return h.auth
}

func (h *Handler) Healthz(c *fiber.Ctx) error {
	return c.SendString("ok")
}
