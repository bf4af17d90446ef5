// Package handlers exposes the service over HTTP.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/errs"
)

// respondError maps the error taxonomy to status codes. Upstream
// failures return a generic body; the cause goes to the log only.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var unsupported *errs.UnsupportedTypeError

	switch {
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrInvalidMessageIndex),
		errors.As(err, &unsupported):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	default:
		logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
