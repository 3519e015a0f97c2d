package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/middleware"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/mattear-com/chefaudit/internal/service"
)

// AdminHandler exposes maintenance and compliance endpoints. All routes
// require the admin role.
type AdminHandler struct {
	store       port.Store
	maintenance *service.MaintenanceService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store port.Store, maintenance *service.MaintenanceService) *AdminHandler {
	return &AdminHandler{store: store, maintenance: maintenance}
}

// Register sets up admin routes on a protected group.
func (h *AdminHandler) Register(api fiber.Router) {
	admin := api.Group("", middleware.RequireAdmin())
	admin.Post("/maintenance/recalculate", h.Recalculate)
	admin.Get("/activity", h.Activity)
}

// Recalculate re-derives stored aggregates. With an audit_id it repairs one
// audit; without, it walks every audit.
func (h *AdminHandler) Recalculate(c fiber.Ctx) error {
	var body struct {
		AuditID string `json:"audit_id"`
	}
	// Empty body means "recalculate everything".
	_ = c.Bind().JSON(&body)

	if body.AuditID != "" {
		if err := h.maintenance.RecalculateAudit(c.Context(), body.AuditID); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"message": "audit recalculated", "audit_id": body.AuditID})
	}

	done, err := h.maintenance.RecalculateAll(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "recalculation complete", "recalculated": done})
}

// Activity returns recent activity log entries, optionally filtered by
// action.
func (h *AdminHandler) Activity(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 100)
	logs, err := h.store.ListActivity(c.Context(), limit, c.Query("action"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"activity": logs, "count": len(logs)})
}

// queryInt reads an integer query param with a default value.
func queryInt(c fiber.Ctx, key string, defaultVal int) int {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
