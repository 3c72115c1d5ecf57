package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/models"
	"gorm.io/gorm"
)

var ErrNotFound = apperr.NotFound("image analysis not found")

type Result struct {
	ImageID   string            `json:"image_id"`
	Status    string            `json:"status"`
	Extracted map[string]string `json:"extracted"`
}

// Lookup reads analysis documents produced by the external analysis job.
type Lookup struct {
	db     *gorm.DB
	cache  Cache
	fields []string
}

type Option func(*Lookup)

func WithCache(cache Cache) Option {
	return func(l *Lookup) {
		l.cache = cache
	}
}

func WithFields(fields ...string) Option {
	return func(l *Lookup) {
		l.fields = fields
	}
}

func NewLookup(db *gorm.DB, opts ...Option) *Lookup {
	l := &Lookup{
		db:     db,
		cache:  NopCache{},
		fields: DefaultFields,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the projected analysis for an image. Missing analyses and
// analyses without results yet are both reported as not found.
func (l *Lookup) Get(ctx context.Context, imageID string) (*Result, error) {
	if cached, ok, err := l.cache.Get(ctx, imageID); err != nil {
		slog.WarnContext(ctx, "analysis cache read failed", "image_id", imageID, "error", err)
	} else if ok {
		return cached, nil
	}

	var row models.ImageAnalysis
	if err := l.db.WithContext(ctx).Where("image_id = ?", imageID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Upstream("failed to look up image analysis", err)
	}

	if row.Results.Empty() {
		return nil, ErrNotFound
	}

	tree, err := row.Results.Decode()
	if err != nil {
		return nil, apperr.Upstream("stored analysis results are not valid JSON", err)
	}

	result := &Result{
		ImageID:   imageID,
		Status:    row.Status,
		Extracted: ExtractStrings(tree, l.fields),
	}

	if row.Status == models.AnalysisDone {
		if err := l.cache.Set(ctx, result); err != nil {
			slog.WarnContext(ctx, "analysis cache write failed", "image_id", imageID, "error", err)
		}
	}
	return result, nil
}
