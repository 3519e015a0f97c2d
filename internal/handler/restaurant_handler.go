package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/middleware"
	"github.com/mattear-com/chefaudit/internal/port"
)

// RestaurantHandler handles restaurant CRUD and per-restaurant stats.
type RestaurantHandler struct {
	store port.Store
}

// NewRestaurantHandler creates a new restaurant handler.
func NewRestaurantHandler(store port.Store) *RestaurantHandler {
	return &RestaurantHandler{store: store}
}

// Register sets up restaurant routes on a protected group.
func (h *RestaurantHandler) Register(api fiber.Router) {
	restaurants := api.Group("/restaurants")
	restaurants.Get("/", h.List)
	restaurants.Post("/", h.Create, middleware.RequireAdmin())
	restaurants.Get("/:id/audits", h.Audits)
}

// List returns all restaurants.
func (h *RestaurantHandler) List(c fiber.Ctx) error {
	restaurants, err := h.store.ListRestaurants(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"restaurants": restaurants, "count": len(restaurants)})
}

// Create adds a new restaurant. Admin only.
func (h *RestaurantHandler) Create(c fiber.Ctx) error {
	var body struct {
		Code    string `json:"code"`
		Name    string `json:"name"`
		Address string `json:"address"`
		City    string `json:"city"`
		Country string `json:"country"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if body.Code == "" || body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code and name are required"})
	}

	created, err := h.store.CreateRestaurant(c.Context(), &domain.Restaurant{
		Code:    body.Code,
		Name:    body.Name,
		Address: body.Address,
		City:    body.City,
		Country: body.Country,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Audits returns a restaurant's audit history together with its average
// score and grade-A count.
func (h *RestaurantHandler) Audits(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	restaurantID := c.Params("id")
	restaurant, err := h.store.GetRestaurant(c.Context(), restaurantID)
	if err != nil {
		return writeError(c, err)
	}

	filter := port.AuditFilter{RestaurantID: restaurantID}
	if uc.Role != domain.RoleAdmin {
		filter.AuditorID = uc.UserID
	}

	audits, err := h.store.ListAudits(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	avg, err := h.store.AverageScore(c.Context(), port.AuditFilter{RestaurantID: restaurantID})
	if err != nil {
		return writeError(c, err)
	}
	gradeA, err := h.store.CountAuditsByGrade(c.Context(), restaurantID, domain.GradeA)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"restaurant":    restaurant,
		"audits":        audits,
		"count":         len(audits),
		"average_score": avg,
		"grade_a_count": gradeA,
	})
}
