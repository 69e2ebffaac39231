package middleware

import (
	"crypto/subtle"
	"time"

	"github.com/cargarage/execution-service/internal/config"
	"github.com/cargarage/execution-service/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

// AdminAuth guards the management API when an admin key is configured.
func AdminAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := cfg.Auth.AdminAPIKey
		if apiKey == "" {
			return c.Next()
		}

		headerToken := c.Get("X-Admin-Token")
		if headerToken == "" {
			auth := c.Get("Authorization")
			const prefix = "Bearer "
			if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
				headerToken = auth[len(prefix):]
			}
		}

		if subtle.ConstantTimeCompare([]byte(headerToken), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:     "Unauthorized",
				Message:   "missing or invalid admin token",
				Status:    fiber.StatusUnauthorized,
				Path:      c.Path(),
				Timestamp: time.Now().UTC(),
			})
		}

		return c.Next()
	}
}
