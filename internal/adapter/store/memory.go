package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
)

// MemoryStore is an in-process implementation of port.Store. It backs the
// test suite and DATABASE_URL-less local runs. RunInTx takes a deep snapshot
// of the state and restores it when fn fails, giving the same
// all-or-nothing contract as the Postgres adapter.
type MemoryStore struct {
	mu   *sync.Mutex
	st   *memState
	inTx bool
}

type memState struct {
	restaurants map[string]domain.Restaurant
	sections    map[string]domain.Section
	questions   map[string]domain.Question
	audits      map[string]domain.Audit
	auditSecs   map[string]domain.AuditSection
	responses   map[string]domain.QuestionResponse
	actions     map[string]domain.CorrectiveAction
	activity    []domain.ActivityLog
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		st: &memState{
			restaurants: map[string]domain.Restaurant{},
			sections:    map[string]domain.Section{},
			questions:   map[string]domain.Question{},
			audits:      map[string]domain.Audit{},
			auditSecs:   map[string]domain.AuditSection{},
			responses:   map[string]domain.QuestionResponse{},
			actions:     map[string]domain.CorrectiveAction{},
		},
	}
}

func (s *memState) clone() *memState {
	out := &memState{
		restaurants: make(map[string]domain.Restaurant, len(s.restaurants)),
		sections:    make(map[string]domain.Section, len(s.sections)),
		questions:   make(map[string]domain.Question, len(s.questions)),
		audits:      make(map[string]domain.Audit, len(s.audits)),
		auditSecs:   make(map[string]domain.AuditSection, len(s.auditSecs)),
		responses:   make(map[string]domain.QuestionResponse, len(s.responses)),
		actions:     make(map[string]domain.CorrectiveAction, len(s.actions)),
		activity:    append([]domain.ActivityLog(nil), s.activity...),
	}
	for k, v := range s.restaurants {
		out.restaurants[k] = v
	}
	for k, v := range s.sections {
		out.sections[k] = v
	}
	for k, v := range s.questions {
		out.questions[k] = v
	}
	for k, v := range s.audits {
		out.audits[k] = v
	}
	for k, v := range s.auditSecs {
		out.auditSecs[k] = v
	}
	for k, v := range s.responses {
		out.responses[k] = v
	}
	for k, v := range s.actions {
		out.actions[k] = v
	}
	return out
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// RunInTx serializes writers and rolls the state back if fn fails. Nested
// calls run in the enclosing transaction.
func (m *MemoryStore) RunInTx(ctx context.Context, fn func(port.Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.st.clone()
	tx := &MemoryStore{mu: m.mu, st: m.st, inTx: true}
	if err := fn(tx); err != nil {
		*m.st = *snap
		return err
	}
	return nil
}

// --- Restaurants ---

func (m *MemoryStore) CreateRestaurant(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error) {
	defer m.lock()()
	for _, existing := range m.st.restaurants {
		if existing.Code == r.Code {
			return nil, port.ErrDuplicate
		}
	}
	cp := *r
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	m.st.restaurants[cp.ID] = cp
	return &cp, nil
}

func (m *MemoryStore) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	defer m.lock()()
	r, ok := m.st.restaurants[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	defer m.lock()()
	out := make([]domain.Restaurant, 0, len(m.st.restaurants))
	for _, r := range m.st.restaurants {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// --- Checklist reference data ---

// SeedSection inserts reference data directly; test and bootstrap helper.
func (m *MemoryStore) SeedSection(s domain.Section) domain.Section {
	defer m.lock()()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.st.sections[s.ID] = s
	return s
}

// SeedQuestion inserts reference data directly; test and bootstrap helper.
func (m *MemoryStore) SeedQuestion(q domain.Question) domain.Question {
	defer m.lock()()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	m.st.questions[q.ID] = q
	return q
}

func (m *MemoryStore) ListSections(ctx context.Context) ([]domain.Section, error) {
	defer m.lock()()
	out := make([]domain.Section, 0, len(m.st.sections))
	for _, s := range m.st.sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *MemoryStore) GetSection(ctx context.Context, id string) (*domain.Section, error) {
	defer m.lock()()
	s, ok := m.st.sections[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	defer m.lock()()
	q, ok := m.st.questions[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &q, nil
}

func (m *MemoryStore) ListQuestionsBySection(ctx context.Context, sectionID string) ([]domain.Question, error) {
	defer m.lock()()
	var out []domain.Question
	for _, q := range m.st.questions {
		if q.SectionID == sectionID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

// --- Audits ---

func (m *MemoryStore) CreateAudit(ctx context.Context, a *domain.Audit) (*domain.Audit, error) {
	defer m.lock()()
	cp := *a
	cp.ID = uuid.NewString()
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.st.audits[cp.ID] = cp
	return &cp, nil
}

func (m *MemoryStore) GetAudit(ctx context.Context, id string) (*domain.Audit, error) {
	defer m.lock()()
	a, ok := m.st.audits[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) matchAudit(a *domain.Audit, f port.AuditFilter) bool {
	if f.RestaurantID != "" && a.RestaurantID != f.RestaurantID {
		return false
	}
	if f.AuditorID != "" && a.AuditorID != f.AuditorID {
		return false
	}
	return true
}

func (m *MemoryStore) ListAudits(ctx context.Context, f port.AuditFilter) ([]domain.Audit, error) {
	defer m.lock()()
	var out []domain.Audit
	for _, a := range m.st.audits {
		if m.matchAudit(&a, f) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AuditDate.After(out[j].AuditDate) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) CountAudits(ctx context.Context, f port.AuditFilter) (int, error) {
	defer m.lock()()
	n := 0
	for _, a := range m.st.audits {
		if m.matchAudit(&a, f) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) UpdateAuditAggregates(ctx context.Context, a *domain.Audit) error {
	defer m.lock()()
	cur, ok := m.st.audits[a.ID]
	if !ok {
		return port.ErrNotFound
	}
	cur.TotalScored = a.TotalScored
	cur.TotalPossible = a.TotalPossible
	cur.TotalPercentage = a.TotalPercentage
	cur.Grade = a.Grade
	cur.HasCriticalFailure = a.HasCriticalFailure
	cur.UpdatedAt = time.Now()
	m.st.audits[a.ID] = cur
	return nil
}

func (m *MemoryStore) UpdateAuditPrevious(ctx context.Context, a *domain.Audit) error {
	defer m.lock()()
	cur, ok := m.st.audits[a.ID]
	if !ok {
		return port.ErrNotFound
	}
	cur.PreviousAuditDate = a.PreviousAuditDate
	cur.PreviousAuditScore = a.PreviousAuditScore
	cur.PreviousAuditor = a.PreviousAuditor
	cur.UpdatedAt = time.Now()
	m.st.audits[a.ID] = cur
	return nil
}

func (m *MemoryStore) MarkAuditSubmitted(ctx context.Context, id string, at time.Time) error {
	defer m.lock()()
	cur, ok := m.st.audits[id]
	if !ok {
		return port.ErrNotFound
	}
	cur.IsSubmitted = true
	cur.SubmittedAt = &at
	cur.UpdatedAt = at
	m.st.audits[id] = cur
	return nil
}

func (m *MemoryStore) DeleteAudit(ctx context.Context, id string) error {
	defer m.lock()()
	if _, ok := m.st.audits[id]; !ok {
		return port.ErrNotFound
	}
	delete(m.st.audits, id)
	// Ownership cascade: audit -> sections -> responses, plus the audit's
	// corrective actions.
	for sid, sec := range m.st.auditSecs {
		if sec.AuditID != id {
			continue
		}
		delete(m.st.auditSecs, sid)
		for rid, r := range m.st.responses {
			if r.AuditSectionID == sid {
				delete(m.st.responses, rid)
			}
		}
	}
	for cid, ca := range m.st.actions {
		if ca.AuditID == id {
			delete(m.st.actions, cid)
		}
	}
	return nil
}

func (m *MemoryStore) LatestSubmittedAuditBefore(ctx context.Context, restaurantID string, before time.Time) (*domain.Audit, error) {
	defer m.lock()()
	var best *domain.Audit
	for _, a := range m.st.audits {
		if a.RestaurantID != restaurantID || !a.IsSubmitted || !a.AuditDate.Before(before) {
			continue
		}
		if best == nil || a.AuditDate.After(best.AuditDate) {
			cp := a
			best = &cp
		}
	}
	if best == nil {
		return nil, port.ErrNotFound
	}
	return best, nil
}

func (m *MemoryStore) AverageScore(ctx context.Context, f port.AuditFilter) (float64, error) {
	defer m.lock()()
	sum := 0.0
	n := 0
	for _, a := range m.st.audits {
		if m.matchAudit(&a, f) {
			v, _ := a.TotalPercentage.Float64()
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (m *MemoryStore) CountAuditsByGrade(ctx context.Context, restaurantID, grade string) (int, error) {
	defer m.lock()()
	n := 0
	for _, a := range m.st.audits {
		if a.RestaurantID == restaurantID && a.Grade == grade {
			n++
		}
	}
	return n, nil
}

// --- Audit sections ---

func (m *MemoryStore) GetOrCreateAuditSection(ctx context.Context, auditID, sectionID string) (*domain.AuditSection, error) {
	defer m.lock()()
	for _, sec := range m.st.auditSecs {
		if sec.AuditID == auditID && sec.SectionID == sectionID {
			return &sec, nil
		}
	}
	sec := domain.AuditSection{
		ID:        uuid.NewString(),
		AuditID:   auditID,
		SectionID: sectionID,
	}
	m.st.auditSecs[sec.ID] = sec
	return &sec, nil
}

func (m *MemoryStore) GetAuditSection(ctx context.Context, id string) (*domain.AuditSection, error) {
	defer m.lock()()
	sec, ok := m.st.auditSecs[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &sec, nil
}

func (m *MemoryStore) ListAuditSections(ctx context.Context, auditID string) ([]domain.AuditSection, error) {
	defer m.lock()()
	var out []domain.AuditSection
	for _, sec := range m.st.auditSecs {
		if sec.AuditID == auditID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionID < out[j].SectionID })
	return out, nil
}

func (m *MemoryStore) UpdateAuditSectionScores(ctx context.Context, s *domain.AuditSection) error {
	defer m.lock()()
	cur, ok := m.st.auditSecs[s.ID]
	if !ok {
		return port.ErrNotFound
	}
	cur.ScoredPoints = s.ScoredPoints
	cur.PossiblePoints = s.PossiblePoints
	cur.SectionPercentage = s.SectionPercentage
	cur.HasCriticalFailure = s.HasCriticalFailure
	m.st.auditSecs[s.ID] = cur
	return nil
}

// --- Question responses ---

func (m *MemoryStore) GetResponseByQuestion(ctx context.Context, auditSectionID, questionID string) (*domain.QuestionResponse, error) {
	defer m.lock()()
	for _, r := range m.st.responses {
		if r.AuditSectionID == auditSectionID && r.QuestionID == questionID {
			return &r, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *MemoryStore) CreateResponse(ctx context.Context, r *domain.QuestionResponse) (*domain.QuestionResponse, error) {
	defer m.lock()()
	cp := *r
	cp.ID = uuid.NewString()
	m.st.responses[cp.ID] = cp
	return &cp, nil
}

func (m *MemoryStore) UpdateResponse(ctx context.Context, r *domain.QuestionResponse) error {
	defer m.lock()()
	if _, ok := m.st.responses[r.ID]; !ok {
		return port.ErrNotFound
	}
	m.st.responses[r.ID] = *r
	return nil
}

func (m *MemoryStore) ListResponsesBySection(ctx context.Context, auditSectionID string) ([]domain.QuestionResponse, error) {
	defer m.lock()()
	var out []domain.QuestionResponse
	for _, r := range m.st.responses {
		if r.AuditSectionID == auditSectionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *MemoryStore) ListResponsesByAudit(ctx context.Context, auditID string) ([]domain.QuestionResponse, error) {
	defer m.lock()()
	secs := map[string]bool{}
	for id, sec := range m.st.auditSecs {
		if sec.AuditID == auditID {
			secs[id] = true
		}
	}
	var out []domain.QuestionResponse
	for _, r := range m.st.responses {
		if secs[r.AuditSectionID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

// --- Corrective actions ---

func (m *MemoryStore) CreateCorrectiveAction(ctx context.Context, ca *domain.CorrectiveAction) (*domain.CorrectiveAction, error) {
	defer m.lock()()
	cp := *ca
	cp.ID = uuid.NewString()
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.st.actions[cp.ID] = cp
	return &cp, nil
}

func (m *MemoryStore) HasCorrectiveActionForResponse(ctx context.Context, responseID string) (bool, error) {
	defer m.lock()()
	for _, ca := range m.st.actions {
		if ca.ResponseID == responseID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) GetCorrectiveAction(ctx context.Context, id string) (*domain.CorrectiveAction, error) {
	defer m.lock()()
	ca, ok := m.st.actions[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &ca, nil
}

func (m *MemoryStore) UpdateCorrectiveAction(ctx context.Context, ca *domain.CorrectiveAction) error {
	defer m.lock()()
	if _, ok := m.st.actions[ca.ID]; !ok {
		return port.ErrNotFound
	}
	cp := *ca
	cp.UpdatedAt = time.Now()
	m.st.actions[ca.ID] = cp
	return nil
}

func (m *MemoryStore) ListCorrectiveActionsByAudit(ctx context.Context, auditID string) ([]domain.CorrectiveAction, error) {
	defer m.lock()()
	var out []domain.CorrectiveAction
	for _, ca := range m.st.actions {
		if ca.AuditID == auditID {
			out = append(out, ca)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Activity log ---

func (m *MemoryStore) WriteActivity(userID, action, resource, resourceID, details, ip, userAgent string) error {
	defer m.lock()()
	m.st.activity = append(m.st.activity, domain.ActivityLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (m *MemoryStore) ListActivity(ctx context.Context, limit int, action string) ([]domain.ActivityLog, error) {
	defer m.lock()()
	var out []domain.ActivityLog
	for i := len(m.st.activity) - 1; i >= 0; i-- {
		l := m.st.activity[i]
		if action != "" && l.Action != action {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ port.Store = (*MemoryStore)(nil)
