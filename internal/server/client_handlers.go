package server

import (
	"almanac/internal/models"
	"almanac/internal/service"

	"github.com/gofiber/fiber/v2"
)

// clientPayload is the create/update client request body.
type clientPayload struct {
	Name        string `json:"name"`
	ThemeColor  string `json:"theme_color"`
	Password    string `json:"password"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// clientResponse decorates a client with its share link.
type clientResponse struct {
	models.Client
	ShareURL string `json:"share_url"`
}

func (s *Server) clientResponse(client *models.Client) clientResponse {
	return clientResponse{
		Client:   *client,
		ShareURL: client.ShareURL(s.config.PublicBaseURL),
	}
}

// GetClients lists managed clients. Inactive clients are included when the
// include_inactive query flag is set.
func (s *Server) GetClients(c *fiber.Ctx) error {
	includeInactive := c.QueryBool("include_inactive", false)

	clients, err := s.clientService.ListClients(c.UserContext(), includeInactive)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]clientResponse, 0, len(clients))
	for i := range clients {
		out = append(out, s.clientResponse(&clients[i]))
	}
	return c.JSON(fiber.Map{"clients": out})
}

// GetClient returns one client with its computed post count.
func (s *Server) GetClient(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}

	client, err := s.clientService.GetClient(c.UserContext(), clientID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.clientResponse(client))
}

// CreateClient adds a new managed client.
func (s *Server) CreateClient(c *fiber.Ctx) error {
	var req clientPayload
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	client, err := s.clientService.CreateClient(c.UserContext(), service.CreateClientInput{
		Name:        req.Name,
		ThemeColor:  req.ThemeColor,
		Password:    req.Password,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.clientResponse(client))
}

// UpdateClient replaces a client's editable fields. An empty password keeps
// the existing share password.
func (s *Server) UpdateClient(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}

	var req clientPayload
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	client, err := s.clientService.UpdateClient(c.UserContext(), service.UpdateClientInput{
		ClientID:    clientID,
		Name:        req.Name,
		ThemeColor:  req.ThemeColor,
		Password:    req.Password,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.clientResponse(client))
}

// ActivateClient makes a client's share view reachable again.
func (s *Server) ActivateClient(c *fiber.Ctx) error {
	return s.setClientActive(c, true)
}

// DeactivateClient hides a client's share view without deleting any data.
func (s *Server) DeactivateClient(c *fiber.Ctx) error {
	return s.setClientActive(c, false)
}

func (s *Server) setClientActive(c *fiber.Ctx, active bool) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}

	if err := s.clientService.SetActive(c.UserContext(), clientID, active); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": clientID, "active": active})
}

// DeleteClient removes a client and its whole calendar. There is no undo.
func (s *Server) DeleteClient(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}

	if err := s.clientService.DeleteClient(c.UserContext(), clientID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
