package port

import (
	"context"
	"time"

	"github.com/mattear-com/chefaudit/internal/domain"
)

// AuditFilter narrows audit listings. Zero values mean "no filter".
type AuditFilter struct {
	RestaurantID string
	AuditorID    string // scope to one auditor (non-admin callers)
	Limit        int
}

// Store is the entity store the core queries and updates. Implementations
// must return ErrNotFound for missing records. RunInTx executes fn against a
// transaction-scoped store: if fn returns an error the whole transaction
// rolls back, leaving no partially written aggregates.
type Store interface {
	RunInTx(ctx context.Context, fn func(Store) error) error

	// Restaurants
	CreateRestaurant(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)

	// Checklist reference data
	ListSections(ctx context.Context) ([]domain.Section, error)
	GetSection(ctx context.Context, id string) (*domain.Section, error)
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)
	ListQuestionsBySection(ctx context.Context, sectionID string) ([]domain.Question, error)

	// Audits
	CreateAudit(ctx context.Context, a *domain.Audit) (*domain.Audit, error)
	GetAudit(ctx context.Context, id string) (*domain.Audit, error)
	ListAudits(ctx context.Context, f AuditFilter) ([]domain.Audit, error)
	CountAudits(ctx context.Context, f AuditFilter) (int, error)
	UpdateAuditAggregates(ctx context.Context, a *domain.Audit) error
	UpdateAuditPrevious(ctx context.Context, a *domain.Audit) error
	MarkAuditSubmitted(ctx context.Context, id string, at time.Time) error
	DeleteAudit(ctx context.Context, id string) error
	// LatestSubmittedAuditBefore returns the most recent submitted audit for
	// the restaurant with an audit date strictly before the given date, or
	// ErrNotFound.
	LatestSubmittedAuditBefore(ctx context.Context, restaurantID string, before time.Time) (*domain.Audit, error)
	AverageScore(ctx context.Context, f AuditFilter) (float64, error)
	CountAuditsByGrade(ctx context.Context, restaurantID, grade string) (int, error)

	// Audit sections
	GetOrCreateAuditSection(ctx context.Context, auditID, sectionID string) (*domain.AuditSection, error)
	GetAuditSection(ctx context.Context, id string) (*domain.AuditSection, error)
	ListAuditSections(ctx context.Context, auditID string) ([]domain.AuditSection, error)
	UpdateAuditSectionScores(ctx context.Context, s *domain.AuditSection) error

	// Question responses
	GetResponseByQuestion(ctx context.Context, auditSectionID, questionID string) (*domain.QuestionResponse, error)
	CreateResponse(ctx context.Context, r *domain.QuestionResponse) (*domain.QuestionResponse, error)
	UpdateResponse(ctx context.Context, r *domain.QuestionResponse) error
	ListResponsesBySection(ctx context.Context, auditSectionID string) ([]domain.QuestionResponse, error)
	ListResponsesByAudit(ctx context.Context, auditID string) ([]domain.QuestionResponse, error)

	// Corrective actions
	CreateCorrectiveAction(ctx context.Context, ca *domain.CorrectiveAction) (*domain.CorrectiveAction, error)
	HasCorrectiveActionForResponse(ctx context.Context, responseID string) (bool, error)
	GetCorrectiveAction(ctx context.Context, id string) (*domain.CorrectiveAction, error)
	UpdateCorrectiveAction(ctx context.Context, ca *domain.CorrectiveAction) error
	ListCorrectiveActionsByAudit(ctx context.Context, auditID string) ([]domain.CorrectiveAction, error)

	// Activity log
	WriteActivity(userID, action, resource, resourceID, details, ip, userAgent string) error
	ListActivity(ctx context.Context, limit int, action string) ([]domain.ActivityLog, error)
}
