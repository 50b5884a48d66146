package server

import (
	"almanac/internal/featureflags"
	"almanac/internal/models"

	"github.com/gofiber/fiber/v2"
)

// VerifySharePassword checks a share-link password attempt. A correct
// password yields a short-lived token scoped to this client; a wrong one
// yields 401 and nothing else happens.
func (s *Server) VerifySharePassword(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}

	if !s.featureFlags.Enabled(featureflags.FlagShareLinks, clientID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Client", clientID))
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	token, err := s.shareService.VerifyPassword(c.UserContext(), clientID, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// GetSharedClient returns the public-safe view of a client for the share
// page header: name, theme, description. Never the password hash.
func (s *Server) GetSharedClient(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}

	client, err := s.clientService.GetClient(c.UserContext(), clientID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":          client.ID,
		"name":        client.Name,
		"theme_color": client.ThemeColor,
		"description": client.Description,
	})
}

// GetSharedPosts returns the read-only calendar for a share view.
func (s *Server) GetSharedPosts(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	month := c.Query("month")

	posts, err := s.shareService.SharedPosts(c.UserContext(), clientID, month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}
