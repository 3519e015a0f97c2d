package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/port"
)

// writeError maps service errors to HTTP responses. Authorization failures
// arrive as ErrNotFound already, so they map to 404 like missing records.
func writeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, port.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, port.ErrAlreadySubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "audit has already been submitted"})
	case errors.Is(err, port.ErrNothingAnswered):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "cannot submit an audit with no answered questions"})
	case errors.Is(err, port.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate record"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
