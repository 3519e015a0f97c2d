package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/middleware"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/mattear-com/chefaudit/internal/service"
)

// AuditHandler handles the audit lifecycle: create, list, results, progress,
// submit and delete.
type AuditHandler struct {
	store     port.Store
	lifecycle *service.LifecycleService
	progress  *service.ProgressService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(store port.Store, lifecycle *service.LifecycleService, progress *service.ProgressService) *AuditHandler {
	return &AuditHandler{store: store, lifecycle: lifecycle, progress: progress}
}

// Register sets up audit routes on a protected group.
func (h *AuditHandler) Register(api fiber.Router) {
	audits := api.Group("/audits")
	audits.Post("/", h.Create)
	audits.Get("/", h.List)
	audits.Get("/:id", h.Get)
	audits.Delete("/:id", h.Delete)
	audits.Get("/:id/progress", h.Progress)
	audits.Post("/:id/submit", h.Submit)
}

// Create starts a new audit visit with all aggregates zeroed.
func (h *AuditHandler) Create(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		RestaurantID     string `json:"restaurant_id"`
		AuditDate        string `json:"audit_date"` // YYYY-MM-DD
		ManagerOnDuty    string `json:"manager_on_duty"`
		AuditorSignature string `json:"auditor_signature"`
		AuditeeSignature string `json:"auditee_signature"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.RestaurantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "restaurant_id is required"})
	}

	auditDate := time.Now()
	if body.AuditDate != "" {
		parsed, err := time.Parse("2006-01-02", body.AuditDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "audit_date must be YYYY-MM-DD"})
		}
		auditDate = parsed
	}

	audit, err := h.lifecycle.CreateAudit(c.Context(), uc, service.CreateAuditInput{
		RestaurantID:     body.RestaurantID,
		AuditDate:        auditDate,
		ManagerOnDuty:    body.ManagerOnDuty,
		AuditorSignature: body.AuditorSignature,
		AuditeeSignature: body.AuditeeSignature,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(audit)
}

// List returns audits visible to the current user, newest first. Admins see
// everything; auditors only their own. Optional restaurant_id filter.
func (h *AuditHandler) List(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	filter := port.AuditFilter{RestaurantID: c.Query("restaurant_id")}
	if uc.Role != domain.RoleAdmin {
		filter.AuditorID = uc.UserID
	}

	audits, err := h.store.ListAudits(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"audits": audits, "count": len(audits)})
}

// Get returns the full results view: the audit, per-section stats, all
// responses and the current status line.
func (h *AuditHandler) Get(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	auditID := c.Params("id")
	audit, err := h.store.GetAudit(c.Context(), auditID)
	if err != nil {
		return writeError(c, err)
	}
	if !domain.CanViewAudit(uc, audit) {
		return writeError(c, port.ErrNotFound)
	}

	stats, err := h.progress.SectionStats(c.Context(), auditID)
	if err != nil {
		return writeError(c, err)
	}
	responses, err := h.store.ListResponsesByAudit(c.Context(), auditID)
	if err != nil {
		return writeError(c, err)
	}
	pct, err := h.progress.AuditProgress(c.Context(), auditID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"audit":     audit,
		"sections":  stats,
		"responses": responses,
		"progress":  pct,
		"status":    audit.Status(pct),
		"grade":     audit.GradeWithReason(),
	})
}

// Delete removes an audit and everything under it.
func (h *AuditHandler) Delete(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := h.lifecycle.Delete(c.Context(), uc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "audit deleted"})
}

// Progress returns the audit-wide completion percentage.
func (h *AuditHandler) Progress(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	auditID := c.Params("id")
	audit, err := h.store.GetAudit(c.Context(), auditID)
	if err != nil {
		return writeError(c, err)
	}
	if !domain.CanViewAudit(uc, audit) {
		return writeError(c, port.ErrNotFound)
	}

	pct, err := h.progress.AuditProgress(c.Context(), auditID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"audit_id": auditID,
		"progress": pct,
		"status":   audit.Status(pct),
	})
}

// Submit finalizes an audit. Guard rejections come back as 409 with the
// audit left untouched.
func (h *AuditHandler) Submit(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	audit, progress, err := h.lifecycle.Submit(c.Context(), uc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"audit":    audit,
		"progress": progress,
		"status":   audit.Status(progress),
		"grade":    audit.GradeWithReason(),
	})
}
