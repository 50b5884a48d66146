package server

import (
	"almanac/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetSettings returns the dashboard settings document. The source field
// reports whether the read came from the remote store, the local cache or
// the built-in defaults.
func (s *Server) GetSettings(c *fiber.Ctx) error {
	settings, source := s.settingsService.GetSettings(c.UserContext())
	return c.JSON(fiber.Map{
		"settings": settings,
		"source":   source,
	})
}

// SaveSettings persists the dashboard settings document. synced=false means
// the write only reached the local cache.
func (s *Server) SaveSettings(c *fiber.Ctx) error {
	var settings models.Settings
	if err := c.BodyParser(&settings); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	synced, err := s.settingsService.SaveSettings(c.UserContext(), &settings)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"settings": settings,
		"synced":   synced,
	})
}

// GetFeatureFlags returns the evaluated feature flags for the dashboard.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags": s.featureFlags.Raw(),
	})
}
