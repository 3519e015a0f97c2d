package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/middleware"
	"github.com/mattear-com/chefaudit/internal/port"
)

// DashboardHandler serves the landing page summary: recent audits, totals
// and the average score, scoped to what the user may see.
type DashboardHandler struct {
	store port.Store
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(store port.Store) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// Register sets up dashboard routes on a protected group.
func (h *DashboardHandler) Register(api fiber.Router) {
	api.Get("/dashboard", h.Get)
}

// Get returns the dashboard summary.
func (h *DashboardHandler) Get(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	filter := port.AuditFilter{}
	if uc.Role != domain.RoleAdmin {
		filter.AuditorID = uc.UserID
	}

	recent, err := h.store.ListAudits(c.Context(), port.AuditFilter{
		AuditorID: filter.AuditorID,
		Limit:     10,
	})
	if err != nil {
		return writeError(c, err)
	}
	total, err := h.store.CountAudits(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	avg, err := h.store.AverageScore(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"recent_audits": recent,
		"total_audits":  total,
		"average_score": avg,
	})
}
