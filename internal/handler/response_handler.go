package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/middleware"
	"github.com/mattear-com/chefaudit/internal/service"
)

// ResponseHandler handles the save-response boundary.
type ResponseHandler struct {
	responses *service.ResponseService
}

// NewResponseHandler creates a new response handler.
func NewResponseHandler(responses *service.ResponseService) *ResponseHandler {
	return &ResponseHandler{responses: responses}
}

// Register sets up response routes on a protected group.
func (h *ResponseHandler) Register(api fiber.Router) {
	api.Post("/responses", h.Save)
}

// Save records one answer and returns the full post-recomputation snapshot.
// scored_points arrives as a string so blank and malformed input can default
// to zero instead of failing the bind.
func (h *ResponseHandler) Save(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		AuditID      string `json:"audit_id"`
		SectionID    string `json:"section_id"`
		QuestionID   string `json:"question_id"`
		ScoredPoints string `json:"scored_points"`
		Comments     string `json:"comments"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.AuditID == "" || body.SectionID == "" || body.QuestionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "audit_id, section_id and question_id are required"})
	}

	snap, err := h.responses.SaveResponse(c.Context(), uc, service.SaveResponseInput{
		AuditID:      body.AuditID,
		SectionID:    body.SectionID,
		QuestionID:   body.QuestionID,
		ScoredPoints: service.ParseScore(body.ScoredPoints),
		Comments:     body.Comments,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(snap)
}
