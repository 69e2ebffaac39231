package handlers

import (
	"errors"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"github.com/cargarage/execution-service/internal/transport/http/dto"
	"github.com/cargarage/execution-service/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const unexpectedErrorMessage = "An unexpected error occurred"

// StatusForError maps the error taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch domain.ErrorCode(err) {
	case domain.ErrCodeInvalidArgument,
		domain.ErrCodeInvalidStatus,
		domain.ErrCodeIllegalTransition,
		domain.ErrCodeConflict,
		domain.ErrCodeMalformedEvent:
		return fiber.StatusBadRequest
	case domain.ErrCodeNotFound:
		return fiber.StatusNotFound
	case domain.ErrCodeStaleWrite:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders err as an ErrorResponse. Unclassified failures keep
// their detail in the log only.
func WriteError(c *fiber.Ctx, log *logger.Logger, clock ports.Clock, err error) error {
	status := StatusForError(err)

	message := unexpectedErrorMessage
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		message = fe.Message
	case status != fiber.StatusInternalServerError:
		message = domain.ErrorMessage(err)
	}

	if status >= fiber.StatusInternalServerError {
		log.Errorw("request_error",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"error", err.Error(),
			"request_id", middleware.RequestIDFrom(c),
		)
	} else {
		log.Warnw("request_failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"code", domain.ErrorCode(err),
			"error", message,
			"request_id", middleware.RequestIDFrom(c),
		)
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error:     utils.StatusMessage(status),
		Message:   message,
		Status:    status,
		Path:      c.Path(),
		Timestamp: clock.Now(),
	})
}

// ErrorHandler is the fiber fallback for errors escaping a route.
func ErrorHandler(log *logger.Logger, clock ports.Clock) fiber.ErrorHandler {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		return WriteError(c, log, clock, err)
	}
}
