package analysis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/krishkalaria12/snapvault/analysis"
	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/database/dbtest"
	"github.com/krishkalaria12/snapvault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryCache struct {
	items   map[string]*analysis.Result
	sets    int
	failGet bool
}

func (m *memoryCache) Get(_ context.Context, imageID string) (*analysis.Result, bool, error) {
	if m.failGet {
		return nil, false, errors.New("connection refused")
	}
	r, ok := m.items[imageID]
	return r, ok, nil
}

func (m *memoryCache) Set(_ context.Context, result *analysis.Result) error {
	m.sets++
	m.items[result.ImageID] = result
	return nil
}

func insertAnalysis(t *testing.T, db *gorm.DB, imageID, status, results string) {
	t.Helper()
	row := models.ImageAnalysis{
		ImageID:            imageID,
		ExternalStorageKey: "analysis/" + imageID + ".json",
		Status:             status,
	}
	if results != "" {
		row.Results = models.JSONResults(results)
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestLookupGet(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	insertAnalysis(t, db, "img-1", models.AnalysisDone, `{"Categories": ["x","y"], "Nested": {"Name": "z"}}`)

	lookup := analysis.NewLookup(db, analysis.WithFields("Categories", "Name"))
	result, err := lookup.Get(context.Background(), "img-1")
	require.NoError(t, err)

	assert.Equal(t, "img-1", result.ImageID)
	assert.Equal(t, models.AnalysisDone, result.Status)
	assert.Equal(t, map[string]string{"Categories": "x, y", "Name": "z"}, result.Extracted)
}

func TestLookupNotFound(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	insertAnalysis(t, db, "img-pending", models.AnalysisProcessing, "")
	insertAnalysis(t, db, "img-null", models.AnalysisProcessing, "null")

	lookup := analysis.NewLookup(db)
	for _, id := range []string{"img-missing", "img-pending", "img-null"} {
		_, err := lookup.Get(context.Background(), id)
		assert.ErrorIs(t, err, analysis.ErrNotFound, id)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	}
}

func TestLookupCachesOnlyDoneResults(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	insertAnalysis(t, db, "img-done", models.AnalysisDone, `{"Name": "a"}`)
	insertAnalysis(t, db, "img-failed", models.AnalysisFailed, `{"Error": "timeout"}`)

	cache := &memoryCache{items: map[string]*analysis.Result{}}
	lookup := analysis.NewLookup(db, analysis.WithCache(cache))
	ctx := context.Background()

	_, err := lookup.Get(ctx, "img-done")
	require.NoError(t, err)
	failed, err := lookup.Get(ctx, "img-failed")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisFailed, failed.Status)
	assert.Empty(t, failed.Extracted)
	assert.Equal(t, 1, cache.sets)

	// served from the cache even after the row is gone
	require.NoError(t, db.Where("image_id = ?", "img-done").Delete(&models.ImageAnalysis{}).Error)
	cached, err := lookup.Get(ctx, "img-done")
	require.NoError(t, err)
	assert.Equal(t, "a", cached.Extracted["Name"])
}

func TestLookupFallsThroughBrokenCache(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	insertAnalysis(t, db, "img-1", models.AnalysisDone, `{"Name": "a"}`)

	cache := &memoryCache{items: map[string]*analysis.Result{}, failGet: true}
	result, err := analysis.NewLookup(db, analysis.WithCache(cache)).Get(context.Background(), "img-1")
	require.NoError(t, err)
	assert.Equal(t, "a", result.Extracted["Name"])
}
