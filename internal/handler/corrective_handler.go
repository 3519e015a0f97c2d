package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/middleware"
	"github.com/mattear-com/chefaudit/internal/service"
)

// CorrectiveHandler handles corrective action listing and operator updates.
type CorrectiveHandler struct {
	corrective *service.CorrectiveService
}

// NewCorrectiveHandler creates a new corrective action handler.
func NewCorrectiveHandler(corrective *service.CorrectiveService) *CorrectiveHandler {
	return &CorrectiveHandler{corrective: corrective}
}

// Register sets up corrective action routes on a protected group.
func (h *CorrectiveHandler) Register(api fiber.Router) {
	api.Get("/audits/:id/corrective-actions", h.ListByAudit)
	api.Put("/corrective-actions/:id", h.Update)
}

// ListByAudit returns corrective actions for an audit the user may view.
func (h *CorrectiveHandler) ListByAudit(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	actions, err := h.corrective.ListByAudit(c.Context(), uc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"corrective_actions": actions, "count": len(actions)})
}

// Update applies operator edits: completion, comments, assignment, risk.
func (h *CorrectiveHandler) Update(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body service.UpdateInput
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	updated, err := h.corrective.Update(c.Context(), uc, c.Params("id"), body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updated)
}
