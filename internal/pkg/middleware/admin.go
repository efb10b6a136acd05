package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminAPIKeyMiddleware authenticates admin requests via the X-API-Key
// header using a constant-time comparison. Rejections happen before any
// handler side effects.
func AdminAPIKeyMiddleware(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := strings.TrimSpace(c.Get("X-API-Key"))
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		}
		return c.Next()
	}
}
