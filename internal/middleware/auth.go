package middleware

import (
	"strconv"
	"strings"

	"almanac/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// Token roles carried in the "role" claim.
const (
	RoleOperator = "operator"
	RoleShare    = "share"
)

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

func parseBearer(c *fiber.Ctx) (jwt.MapClaims, error) {
	authHeader := c.Get("Authorization")
	tokenString := ""

	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
		}
		tokenString = parts[1]
	} else {
		// WebSocket clients cannot set headers; accept the token as a query param.
		tokenString = c.Query("token")
	}

	if tokenString == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authorization required")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	return claims, nil
}

// AuthRequired enforces an operator token on protected dashboard routes.
func AuthRequired(c *fiber.Ctx) error {
	claims, err := parseBearer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	if role, _ := claims["role"].(string); role != RoleOperator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operator access required",
		})
	}

	if sub, ok := claims["sub"].(string); ok {
		c.Locals("operator", sub)
	}
	return c.Next()
}

// ShareAuthRequired enforces a share token scoped to the clientId route
// parameter. Share tokens are issued after a successful share-link password
// check and grant read-only access to exactly one client's calendar.
func ShareAuthRequired(c *fiber.Ctx) error {
	claims, err := parseBearer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	role, _ := claims["role"].(string)
	if role != RoleShare && role != RoleOperator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Share access required",
		})
	}

	// Operators may open any share view; share tokens are pinned to one client.
	if role == RoleShare {
		claimID, ok := claims["client_id"].(float64)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token structure - missing client",
			})
		}
		paramID, err := strconv.ParseUint(c.Params("clientId"), 10, 64)
		if err != nil || uint64(claimID) != paramID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Token not valid for this client",
			})
		}
		c.Locals("clientID", uint(claimID))
	}

	return c.Next()
}
