package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/headshop-br/headshop/internal/pkg/env"
)

// AdminKeyMiddleware guards back-office routes with a shared key from
// ADMIN_API_KEY. An empty configured key disables the whole admin surface
// rather than leaving it open.
func AdminKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		configured := env.GetEnv("ADMIN_API_KEY", "")
		if configured == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "admin_api_disabled"})
		}

		provided := extractAdminKey(c)
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing admin key"})
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid admin key"})
		}

		return c.Next()
	}
}

func extractAdminKey(c *fiber.Ctx) string {
	key := strings.TrimSpace(c.Get("X-Admin-Key"))
	if key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
