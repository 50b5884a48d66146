package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac/internal/fallback"
	"almanac/internal/localcache"
	"almanac/internal/models"
)

func newSettingsService(t *testing.T) *SettingsService {
	t.Helper()
	cache, err := localcache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return NewSettingsService(fallback.New(nil, cache))
}

func TestGetSettings_DefaultsWhenNeverSaved(t *testing.T) {
	svc := newSettingsService(t)

	settings, source := svc.GetSettings(context.Background())
	assert.Equal(t, fallback.SourceEmpty, source)
	assert.Equal(t, models.DefaultSettings(), settings)
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	// No remote store, so the write is not synced but still lands in cache.
	synced, err := svc.SaveSettings(ctx, &models.Settings{
		DashboardTitle: "Agency Calendar",
		DefaultMonth:   "09",
	})
	require.NoError(t, err)
	assert.False(t, synced)

	settings, source := svc.GetSettings(ctx)
	assert.Equal(t, fallback.SourceCache, source)
	assert.Equal(t, "Agency Calendar", settings.DashboardTitle)
	assert.Equal(t, "09", settings.DefaultMonth)
}

func TestSaveSettings_Validation(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	_, err := svc.SaveSettings(ctx, &models.Settings{DashboardTitle: "  "})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = svc.SaveSettings(ctx, &models.Settings{
		DashboardTitle: "Calendar",
		DefaultMonth:   "13",
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	// An empty default month normalizes to "all".
	settings := &models.Settings{DashboardTitle: "Calendar"}
	_, err = svc.SaveSettings(ctx, settings)
	require.NoError(t, err)
	assert.Equal(t, "all", settings.DefaultMonth)
}
