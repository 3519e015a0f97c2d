package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
)

// ChecklistHandler serves the static checklist reference data.
type ChecklistHandler struct {
	store port.Store
}

// NewChecklistHandler creates a new checklist handler.
func NewChecklistHandler(store port.Store) *ChecklistHandler {
	return &ChecklistHandler{store: store}
}

// Register sets up checklist routes on a protected group.
func (h *ChecklistHandler) Register(api fiber.Router) {
	api.Get("/sections", h.List)
}

// sectionWithQuestions is a section plus its questions in display order.
type sectionWithQuestions struct {
	domain.Section
	Questions []domain.Question `json:"questions"`
}

// List returns every checklist section with its questions.
func (h *ChecklistHandler) List(c fiber.Ctx) error {
	sections, err := h.store.ListSections(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	out := make([]sectionWithQuestions, 0, len(sections))
	for i := range sections {
		questions, err := h.store.ListQuestionsBySection(c.Context(), sections[i].ID)
		if err != nil {
			return writeError(c, err)
		}
		out = append(out, sectionWithQuestions{Section: sections[i], Questions: questions})
	}
	return c.JSON(fiber.Map{"sections": out, "count": len(out)})
}
