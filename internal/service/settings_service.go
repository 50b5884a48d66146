package service

import (
	"context"
	"strings"

	"almanac/internal/fallback"
	"almanac/internal/models"
	"almanac/internal/schedule"
)

// SettingsService persists the dashboard settings document through the
// fallback policy, so settings survive remote outages via the local mirror.
type SettingsService struct {
	fb *fallback.Store
}

// NewSettingsService creates a new settings service.
func NewSettingsService(fb *fallback.Store) *SettingsService {
	return &SettingsService{fb: fb}
}

// GetSettings loads the current settings; a never-saved dashboard gets the
// defaults. The source reports whether the read was degraded.
func (s *SettingsService) GetSettings(ctx context.Context) (*models.Settings, fallback.Source) {
	return s.fb.LoadSettings(ctx)
}

// SaveSettings validates and persists the settings document. The returned
// synced flag is false when the write only reached the local cache.
func (s *SettingsService) SaveSettings(ctx context.Context, settings *models.Settings) (synced bool, err error) {
	if strings.TrimSpace(settings.DashboardTitle) == "" {
		return false, models.NewValidationError("Dashboard title is required")
	}
	if settings.DefaultMonth == "" {
		settings.DefaultMonth = schedule.MonthAll
	}
	if settings.DefaultMonth != schedule.MonthAll {
		if _, perr := schedule.ParseDisplayDate("01/" + settings.DefaultMonth); perr != nil {
			return false, models.NewValidationError("Default month must be a two-digit month or \"all\"")
		}
	}

	return s.fb.SaveSettings(ctx, settings), nil
}
