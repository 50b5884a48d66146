package server

import (
	"crypto/subtle"
	"time"

	"almanac/internal/middleware"
	"almanac/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest is the operator login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the dashboard operator against the configured
// credentials and issues an operator token. This is a single-operator tool;
// there is no user table behind it.
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.config.OperatorUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.config.OperatorPassword)) == 1
	if !userOK || !passOK {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	ttl := time.Duration(s.config.OperatorTokenTTLH) * time.Hour
	claims := jwt.MapClaims{
		"role": middleware.RoleOperator,
		"sub":  req.Username,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":      signed,
		"expires_at": time.Now().Add(ttl).Unix(),
	})
}

// Me returns the authenticated operator's identity.
func (s *Server) Me(c *fiber.Ctx) error {
	operator, _ := c.Locals("operator").(string)
	return c.JSON(fiber.Map{
		"username": operator,
		"role":     middleware.RoleOperator,
	})
}
