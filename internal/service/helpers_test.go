package service

import (
	"context"
	"testing"
	"time"

	"github.com/mattear-com/chefaudit/internal/adapter/store"
	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv wires the full service stack against a memory store, seeded with
// one restaurant and a two-section checklist:
//
//	Food Safety:  Q critical (10 pts), Q regular (5 pts)
//	Cleanliness:  Q floor (5 pts)
type testEnv struct {
	store       *store.MemoryStore
	scoring     *ScoringService
	progress    *ProgressService
	corrective  *CorrectiveService
	responses   *ResponseService
	lifecycle   *LifecycleService
	maintenance *MaintenanceService

	admin   *domain.UserContext
	auditor *domain.UserContext
	other   *domain.UserContext

	restaurant *domain.Restaurant
	foodSafety domain.Section
	qCritical  domain.Question
	qRegular   domain.Question
	cleaning   domain.Section
	qFloor     domain.Question
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()

	e := &testEnv{
		store:      st,
		scoring:    NewScoringService(st),
		progress:   NewProgressService(st),
		corrective: NewCorrectiveService(st),
		admin:      &domain.UserContext{UserID: "admin-1", Name: "Alex Admin", Role: domain.RoleAdmin},
		auditor:    &domain.UserContext{UserID: "auditor-1", Name: "Jamie Inspector", Role: domain.RoleAuditor},
		other:      &domain.UserContext{UserID: "auditor-2", Name: "Sam Other", Role: domain.RoleAuditor},
	}
	e.responses = NewResponseService(st, e.scoring, e.corrective, e.progress)
	e.lifecycle = NewLifecycleService(st, e.scoring, e.progress)
	e.maintenance = NewMaintenanceService(st, e.scoring)

	r, err := st.CreateRestaurant(context.Background(), &domain.Restaurant{
		Code: "R001", Name: "Harbor Grill", City: "Rotterdam", Country: "NL",
	})
	require.NoError(t, err)
	e.restaurant = r

	e.foodSafety = st.SeedSection(domain.Section{Name: "Food Safety", DisplayOrder: 1})
	e.qCritical = st.SeedQuestion(domain.Question{
		SectionID:      e.foodSafety.ID,
		Text:           "Cold chain maintained below 4C",
		PossiblePoints: decimal.NewFromInt(10),
		IsCritical:     true,
		DisplayOrder:   1,
	})
	e.qRegular = st.SeedQuestion(domain.Question{
		SectionID:      e.foodSafety.ID,
		Text:           "Allergen list displayed",
		PossiblePoints: decimal.NewFromInt(5),
		DisplayOrder:   2,
	})

	e.cleaning = st.SeedSection(domain.Section{Name: "Cleanliness", DisplayOrder: 2})
	e.qFloor = st.SeedQuestion(domain.Question{
		SectionID:      e.cleaning.ID,
		Text:           "Kitchen floor clean and dry",
		PossiblePoints: decimal.NewFromInt(5),
		DisplayOrder:   1,
	})

	return e
}

// newBareEnv is newTestEnv without any checklist: a restaurant exists but no
// sections or questions.
func newBareEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()

	e := &testEnv{
		store:      st,
		scoring:    NewScoringService(st),
		progress:   NewProgressService(st),
		corrective: NewCorrectiveService(st),
		auditor:    &domain.UserContext{UserID: "auditor-1", Name: "Jamie Inspector", Role: domain.RoleAuditor},
	}
	e.responses = NewResponseService(st, e.scoring, e.corrective, e.progress)
	e.lifecycle = NewLifecycleService(st, e.scoring, e.progress)
	e.maintenance = NewMaintenanceService(st, e.scoring)

	r, err := st.CreateRestaurant(context.Background(), &domain.Restaurant{Code: "R002", Name: "Empty Slate"})
	require.NoError(t, err)
	e.restaurant = r
	return e
}

// newAudit creates an audit for the fixture restaurant owned by uc.
func (e *testEnv) newAudit(t *testing.T, uc *domain.UserContext) *domain.Audit {
	t.Helper()
	audit, err := e.lifecycle.CreateAudit(context.Background(), uc, CreateAuditInput{
		RestaurantID:  e.restaurant.ID,
		AuditDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		ManagerOnDuty: "Morgan Manager",
	})
	require.NoError(t, err)
	return audit
}

// save records one answer as uc and requires success.
func (e *testEnv) save(t *testing.T, uc *domain.UserContext, auditID string, q domain.Question, score string, comments string) *Snapshot {
	t.Helper()
	snap, err := e.responses.SaveResponse(context.Background(), uc, SaveResponseInput{
		AuditID:      auditID,
		SectionID:    q.SectionID,
		QuestionID:   q.ID,
		ScoredPoints: ParseScore(score),
		Comments:     comments,
	})
	require.NoError(t, err)
	return snap
}
