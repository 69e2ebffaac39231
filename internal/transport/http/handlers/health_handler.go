package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	check func() error
}

// NewHealthHandler reports healthy when check is nil or returns nil.
func NewHealthHandler(check func() error) *HealthHandler {
	return &HealthHandler{check: check}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	if h.check != nil {
		if err := h.check(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "down",
				"database": err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
