package handlers

import (
	"errors"
	"log/slog"

	"blogapi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindInvalidInput:
		return fiber.StatusBadRequest
	case models.KindConflict:
		return fiber.StatusConflict
	case models.KindUnauthorized:
		return fiber.StatusUnauthorized
	case models.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError answers with {"error": message}. Internal causes are logged
// and never sent to the client.
func writeError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}

	status := StatusFor(appErr.Kind)
	if status == fiber.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": appErr.Message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
}
