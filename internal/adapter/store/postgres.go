package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every query method
// works inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB // nil when transaction-scoped
	q  querier
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db, q: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunInTx executes fn against a transaction-scoped store. Any error from fn
// rolls the whole transaction back. Nested calls join the open transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(port.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&PostgresStore{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return port.ErrNotFound
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return port.ErrNotFound
	}
	return nil
}

// --- Restaurants ---

// CreateRestaurant inserts a restaurant record.
func (s *PostgresStore) CreateRestaurant(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error) {
	query := `INSERT INTO restaurants (code, name, address, city, country)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, code, name, address, city, country, created_at`

	var out domain.Restaurant
	err := s.q.QueryRowContext(ctx, query, r.Code, r.Name, r.Address, r.City, r.Country).Scan(
		&out.ID, &out.Code, &out.Name, &out.Address, &out.City, &out.Country, &out.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, port.ErrDuplicate
		}
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	return &out, nil
}

// GetRestaurant retrieves a restaurant by ID.
func (s *PostgresStore) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	query := `SELECT id, code, name, address, city, country, created_at
	          FROM restaurants WHERE id = $1`

	var r domain.Restaurant
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Code, &r.Name, &r.Address, &r.City, &r.Country, &r.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ListRestaurants returns all restaurants ordered by code.
func (s *PostgresStore) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	query := `SELECT id, code, name, address, city, country, created_at
	          FROM restaurants ORDER BY code`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		var r domain.Restaurant
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.Address, &r.City, &r.Country, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- Checklist reference data ---

// ListSections returns checklist sections in display order.
func (s *PostgresStore) ListSections(ctx context.Context) ([]domain.Section, error) {
	query := `SELECT id, name, description, display_order
	          FROM sections ORDER BY display_order`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var out []domain.Section
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.Description, &sec.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// GetSection retrieves one checklist section.
func (s *PostgresStore) GetSection(ctx context.Context, id string) (*domain.Section, error) {
	query := `SELECT id, name, description, display_order FROM sections WHERE id = $1`

	var sec domain.Section
	err := s.q.QueryRowContext(ctx, query, id).Scan(&sec.ID, &sec.Name, &sec.Description, &sec.DisplayOrder)
	if err != nil {
		return nil, notFound(err)
	}
	return &sec, nil
}

// GetQuestion retrieves one checklist question.
func (s *PostgresStore) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	query := `SELECT id, section_id, question_text, possible_points, is_critical,
	                 critical_failure_condition, display_order
	          FROM questions WHERE id = $1`

	var q domain.Question
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&q.ID, &q.SectionID, &q.Text, &q.PossiblePoints, &q.IsCritical,
		&q.CriticalFailureCondition, &q.DisplayOrder,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

// ListQuestionsBySection returns a section's questions in display order.
func (s *PostgresStore) ListQuestionsBySection(ctx context.Context, sectionID string) ([]domain.Question, error) {
	query := `SELECT id, section_id, question_text, possible_points, is_critical,
	                 critical_failure_condition, display_order
	          FROM questions WHERE section_id = $1 ORDER BY display_order`

	rows, err := s.q.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(
			&q.ID, &q.SectionID, &q.Text, &q.PossiblePoints, &q.IsCritical,
			&q.CriticalFailureCondition, &q.DisplayOrder,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// --- Audits ---

const auditColumns = `id, restaurant_id, audit_date, manager_on_duty, auditor_id, auditor_name,
	auditor_signature, auditee_signature,
	total_scored, total_possible, total_percentage, grade, has_critical_failure,
	previous_audit_date, previous_audit_score, previous_auditor,
	is_submitted, submitted_at, created_at, updated_at`

func scanAudit(row interface{ Scan(...any) error }) (*domain.Audit, error) {
	var (
		a         domain.Audit
		prevDate  sql.NullTime
		prevScore decimal.NullDecimal
		submitted sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.RestaurantID, &a.AuditDate, &a.ManagerOnDuty, &a.AuditorID, &a.AuditorName,
		&a.AuditorSignature, &a.AuditeeSignature,
		&a.TotalScored, &a.TotalPossible, &a.TotalPercentage, &a.Grade, &a.HasCriticalFailure,
		&prevDate, &prevScore, &a.PreviousAuditor,
		&a.IsSubmitted, &submitted, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if prevDate.Valid {
		a.PreviousAuditDate = &prevDate.Time
	}
	if prevScore.Valid {
		a.PreviousAuditScore = &prevScore.Decimal
	}
	if submitted.Valid {
		a.SubmittedAt = &submitted.Time
	}
	return &a, nil
}

// CreateAudit inserts an audit with all aggregates zeroed.
func (s *PostgresStore) CreateAudit(ctx context.Context, a *domain.Audit) (*domain.Audit, error) {
	query := `INSERT INTO audits (restaurant_id, audit_date, manager_on_duty, auditor_id, auditor_name,
	                              auditor_signature, auditee_signature, grade)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING ` + auditColumns

	out, err := scanAudit(s.q.QueryRowContext(ctx, query,
		a.RestaurantID, a.AuditDate, a.ManagerOnDuty, a.AuditorID, a.AuditorName,
		a.AuditorSignature, a.AuditeeSignature, a.Grade,
	))
	if err != nil {
		return nil, fmt.Errorf("create audit: %w", err)
	}
	return out, nil
}

// GetAudit retrieves an audit by ID.
func (s *PostgresStore) GetAudit(ctx context.Context, id string) (*domain.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE id = $1`
	a, err := scanAudit(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func auditFilterClause(f port.AuditFilter) (string, []any) {
	where := ""
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		if where == "" {
			where = fmt.Sprintf(" WHERE %s $%d", cond, len(args))
		} else {
			where += fmt.Sprintf(" AND %s $%d", cond, len(args))
		}
	}
	if f.RestaurantID != "" {
		add("restaurant_id =", f.RestaurantID)
	}
	if f.AuditorID != "" {
		add("auditor_id =", f.AuditorID)
	}
	return where, args
}

// ListAudits returns audits newest first, optionally filtered.
func (s *PostgresStore) ListAudits(ctx context.Context, f port.AuditFilter) ([]domain.Audit, error) {
	where, args := auditFilterClause(f)
	query := `SELECT ` + auditColumns + ` FROM audits` + where + ` ORDER BY audit_date DESC, created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var out []domain.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CountAudits returns the number of audits matching the filter.
func (s *PostgresStore) CountAudits(ctx context.Context, f port.AuditFilter) (int, error) {
	where, args := auditFilterClause(f)
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM audits`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audits: %w", err)
	}
	return n, nil
}

// UpdateAuditAggregates persists only the derived aggregate fields.
func (s *PostgresStore) UpdateAuditAggregates(ctx context.Context, a *domain.Audit) error {
	query := `UPDATE audits
	          SET total_scored = $1, total_possible = $2, total_percentage = $3,
	              grade = $4, has_critical_failure = $5, updated_at = NOW()
	          WHERE id = $6`

	res, err := s.q.ExecContext(ctx, query,
		a.TotalScored, a.TotalPossible, a.TotalPercentage, a.Grade, a.HasCriticalFailure, a.ID)
	if err != nil {
		return fmt.Errorf("update audit aggregates: %w", err)
	}
	return requireRow(res)
}

// UpdateAuditPrevious persists the previous-audit snapshot fields.
func (s *PostgresStore) UpdateAuditPrevious(ctx context.Context, a *domain.Audit) error {
	var (
		prevDate  sql.NullTime
		prevScore decimal.NullDecimal
	)
	if a.PreviousAuditDate != nil {
		prevDate = sql.NullTime{Time: *a.PreviousAuditDate, Valid: true}
	}
	if a.PreviousAuditScore != nil {
		prevScore = decimal.NullDecimal{Decimal: *a.PreviousAuditScore, Valid: true}
	}

	query := `UPDATE audits
	          SET previous_audit_date = $1, previous_audit_score = $2, previous_auditor = $3, updated_at = NOW()
	          WHERE id = $4`

	res, err := s.q.ExecContext(ctx, query, prevDate, prevScore, a.PreviousAuditor, a.ID)
	if err != nil {
		return fmt.Errorf("update previous audit info: %w", err)
	}
	return requireRow(res)
}

// MarkAuditSubmitted sets the submitted flag and timestamp.
func (s *PostgresStore) MarkAuditSubmitted(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE audits SET is_submitted = TRUE, submitted_at = $1, updated_at = NOW()
	          WHERE id = $2 AND is_submitted = FALSE`

	res, err := s.q.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	return requireRow(res)
}

// DeleteAudit removes an audit; its sections, responses and corrective
// actions go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteAudit(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM audits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete audit: %w", err)
	}
	return requireRow(res)
}

// LatestSubmittedAuditBefore returns the most recent submitted audit for the
// restaurant dated strictly before the given date.
func (s *PostgresStore) LatestSubmittedAuditBefore(ctx context.Context, restaurantID string, before time.Time) (*domain.Audit, error) {
	query := `SELECT ` + auditColumns + `
	          FROM audits
	          WHERE restaurant_id = $1 AND audit_date < $2 AND is_submitted = TRUE
	          ORDER BY audit_date DESC
	          LIMIT 1`

	a, err := scanAudit(s.q.QueryRowContext(ctx, query, restaurantID, before))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// AverageScore returns the mean total percentage over matching audits, or
// zero when none match.
func (s *PostgresStore) AverageScore(ctx context.Context, f port.AuditFilter) (float64, error) {
	where, args := auditFilterClause(f)
	var avg sql.NullFloat64
	err := s.q.QueryRowContext(ctx, `SELECT AVG(total_percentage) FROM audits`+where, args...).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average score: %w", err)
	}
	return avg.Float64, nil
}

// CountAuditsByGrade counts a restaurant's audits with the given grade.
func (s *PostgresStore) CountAuditsByGrade(ctx context.Context, restaurantID, grade string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audits WHERE restaurant_id = $1 AND grade = $2`,
		restaurantID, grade).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audits by grade: %w", err)
	}
	return n, nil
}

// --- Audit sections ---

// GetOrCreateAuditSection returns the rollup row for (audit, section),
// creating it zeroed on first use.
func (s *PostgresStore) GetOrCreateAuditSection(ctx context.Context, auditID, sectionID string) (*domain.AuditSection, error) {
	query := `INSERT INTO audit_sections (audit_id, section_id)
	          VALUES ($1, $2)
	          ON CONFLICT (audit_id, section_id) DO UPDATE SET audit_id = EXCLUDED.audit_id
	          RETURNING id, audit_id, section_id, scored_points, possible_points,
	                    section_percentage, has_critical_failure`

	var sec domain.AuditSection
	err := s.q.QueryRowContext(ctx, query, auditID, sectionID).Scan(
		&sec.ID, &sec.AuditID, &sec.SectionID, &sec.ScoredPoints, &sec.PossiblePoints,
		&sec.SectionPercentage, &sec.HasCriticalFailure,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create audit section: %w", err)
	}
	return &sec, nil
}

// GetAuditSection retrieves one audit section rollup.
func (s *PostgresStore) GetAuditSection(ctx context.Context, id string) (*domain.AuditSection, error) {
	query := `SELECT id, audit_id, section_id, scored_points, possible_points,
	                 section_percentage, has_critical_failure
	          FROM audit_sections WHERE id = $1`

	var sec domain.AuditSection
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&sec.ID, &sec.AuditID, &sec.SectionID, &sec.ScoredPoints, &sec.PossiblePoints,
		&sec.SectionPercentage, &sec.HasCriticalFailure,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &sec, nil
}

// ListAuditSections returns all section rollups for an audit in checklist
// display order.
func (s *PostgresStore) ListAuditSections(ctx context.Context, auditID string) ([]domain.AuditSection, error) {
	query := `SELECT s.id, s.audit_id, s.section_id, s.scored_points, s.possible_points,
	                 s.section_percentage, s.has_critical_failure
	          FROM audit_sections s
	          JOIN sections ref ON ref.id = s.section_id
	          WHERE s.audit_id = $1
	          ORDER BY ref.display_order`

	rows, err := s.q.QueryContext(ctx, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("list audit sections: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditSection
	for rows.Next() {
		var sec domain.AuditSection
		if err := rows.Scan(
			&sec.ID, &sec.AuditID, &sec.SectionID, &sec.ScoredPoints, &sec.PossiblePoints,
			&sec.SectionPercentage, &sec.HasCriticalFailure,
		); err != nil {
			return nil, fmt.Errorf("scan audit section: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// UpdateAuditSectionScores persists the derived rollup fields.
func (s *PostgresStore) UpdateAuditSectionScores(ctx context.Context, sec *domain.AuditSection) error {
	query := `UPDATE audit_sections
	          SET scored_points = $1, possible_points = $2, section_percentage = $3, has_critical_failure = $4
	          WHERE id = $5`

	res, err := s.q.ExecContext(ctx, query,
		sec.ScoredPoints, sec.PossiblePoints, sec.SectionPercentage, sec.HasCriticalFailure, sec.ID)
	if err != nil {
		return fmt.Errorf("update section scores: %w", err)
	}
	return requireRow(res)
}

// --- Question responses ---

// GetResponseByQuestion retrieves the response for (audit section, question).
func (s *PostgresStore) GetResponseByQuestion(ctx context.Context, auditSectionID, questionID string) (*domain.QuestionResponse, error) {
	query := `SELECT id, audit_section_id, question_id, scored_points, comments, needs_corrective_action
	          FROM question_responses WHERE audit_section_id = $1 AND question_id = $2`

	var r domain.QuestionResponse
	err := s.q.QueryRowContext(ctx, query, auditSectionID, questionID).Scan(
		&r.ID, &r.AuditSectionID, &r.QuestionID, &r.ScoredPoints, &r.Comments, &r.NeedsCorrectiveAction,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// CreateResponse inserts a question response.
func (s *PostgresStore) CreateResponse(ctx context.Context, r *domain.QuestionResponse) (*domain.QuestionResponse, error) {
	query := `INSERT INTO question_responses (audit_section_id, question_id, scored_points, comments, needs_corrective_action)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, audit_section_id, question_id, scored_points, comments, needs_corrective_action`

	var out domain.QuestionResponse
	err := s.q.QueryRowContext(ctx, query,
		r.AuditSectionID, r.QuestionID, r.ScoredPoints, r.Comments, r.NeedsCorrectiveAction,
	).Scan(&out.ID, &out.AuditSectionID, &out.QuestionID, &out.ScoredPoints, &out.Comments, &out.NeedsCorrectiveAction)
	if err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}
	return &out, nil
}

// UpdateResponse persists edits to a question response.
func (s *PostgresStore) UpdateResponse(ctx context.Context, r *domain.QuestionResponse) error {
	query := `UPDATE question_responses
	          SET scored_points = $1, comments = $2, needs_corrective_action = $3
	          WHERE id = $4`

	res, err := s.q.ExecContext(ctx, query, r.ScoredPoints, r.Comments, r.NeedsCorrectiveAction, r.ID)
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	return requireRow(res)
}

// ListResponsesBySection returns all responses under one audit section.
func (s *PostgresStore) ListResponsesBySection(ctx context.Context, auditSectionID string) ([]domain.QuestionResponse, error) {
	query := `SELECT id, audit_section_id, question_id, scored_points, comments, needs_corrective_action
	          FROM question_responses WHERE audit_section_id = $1`

	return s.queryResponses(ctx, query, auditSectionID)
}

// ListResponsesByAudit returns every response under an audit.
func (s *PostgresStore) ListResponsesByAudit(ctx context.Context, auditID string) ([]domain.QuestionResponse, error) {
	query := `SELECT r.id, r.audit_section_id, r.question_id, r.scored_points, r.comments, r.needs_corrective_action
	          FROM question_responses r
	          JOIN audit_sections s ON s.id = r.audit_section_id
	          WHERE s.audit_id = $1`

	return s.queryResponses(ctx, query, auditID)
}

func (s *PostgresStore) queryResponses(ctx context.Context, query string, args ...any) ([]domain.QuestionResponse, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionResponse
	for rows.Next() {
		var r domain.QuestionResponse
		if err := rows.Scan(
			&r.ID, &r.AuditSectionID, &r.QuestionID, &r.ScoredPoints, &r.Comments, &r.NeedsCorrectiveAction,
		); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- Corrective actions ---

const actionColumns = `id, audit_id, response_id, description, risk_level, assigned_to,
	deadline, completed, completion_date, comments, created_at, updated_at`

func scanAction(row interface{ Scan(...any) error }) (*domain.CorrectiveAction, error) {
	var (
		ca   domain.CorrectiveAction
		done sql.NullTime
	)
	err := row.Scan(
		&ca.ID, &ca.AuditID, &ca.ResponseID, &ca.Description, &ca.RiskLevel, &ca.AssignedTo,
		&ca.Deadline, &ca.Completed, &done, &ca.Comments, &ca.CreatedAt, &ca.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if done.Valid {
		ca.CompletionDate = &done.Time
	}
	return &ca, nil
}

// CreateCorrectiveAction inserts a remediation record.
func (s *PostgresStore) CreateCorrectiveAction(ctx context.Context, ca *domain.CorrectiveAction) (*domain.CorrectiveAction, error) {
	query := `INSERT INTO corrective_actions (audit_id, response_id, description, risk_level, assigned_to, deadline, comments)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING ` + actionColumns

	out, err := scanAction(s.q.QueryRowContext(ctx, query,
		ca.AuditID, ca.ResponseID, ca.Description, ca.RiskLevel, ca.AssignedTo, ca.Deadline, ca.Comments,
	))
	if err != nil {
		return nil, fmt.Errorf("create corrective action: %w", err)
	}
	return out, nil
}

// HasCorrectiveActionForResponse reports whether a remediation record
// already exists for the response.
func (s *PostgresStore) HasCorrectiveActionForResponse(ctx context.Context, responseID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM corrective_actions WHERE response_id = $1)`, responseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check corrective action: %w", err)
	}
	return exists, nil
}

// GetCorrectiveAction retrieves one remediation record.
func (s *PostgresStore) GetCorrectiveAction(ctx context.Context, id string) (*domain.CorrectiveAction, error) {
	query := `SELECT ` + actionColumns + ` FROM corrective_actions WHERE id = $1`
	ca, err := scanAction(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return ca, nil
}

// UpdateCorrectiveAction persists operator edits.
func (s *PostgresStore) UpdateCorrectiveAction(ctx context.Context, ca *domain.CorrectiveAction) error {
	var done sql.NullTime
	if ca.CompletionDate != nil {
		done = sql.NullTime{Time: *ca.CompletionDate, Valid: true}
	}

	query := `UPDATE corrective_actions
	          SET description = $1, risk_level = $2, assigned_to = $3, deadline = $4,
	              completed = $5, completion_date = $6, comments = $7, updated_at = NOW()
	          WHERE id = $8`

	res, err := s.q.ExecContext(ctx, query,
		ca.Description, ca.RiskLevel, ca.AssignedTo, ca.Deadline,
		ca.Completed, done, ca.Comments, ca.ID)
	if err != nil {
		return fmt.Errorf("update corrective action: %w", err)
	}
	return requireRow(res)
}

// ListCorrectiveActionsByAudit returns an audit's remediation records,
// oldest first.
func (s *PostgresStore) ListCorrectiveActionsByAudit(ctx context.Context, auditID string) ([]domain.CorrectiveAction, error) {
	query := `SELECT ` + actionColumns + ` FROM corrective_actions WHERE audit_id = $1 ORDER BY created_at`

	rows, err := s.q.QueryContext(ctx, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("list corrective actions: %w", err)
	}
	defer rows.Close()

	var out []domain.CorrectiveAction
	for rows.Next() {
		ca, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan corrective action: %w", err)
		}
		out = append(out, *ca)
	}
	return out, rows.Err()
}

// --- Activity log ---

// WriteActivity records one activity entry. Fire-and-forget from the request
// path, so it takes no caller context.
func (s *PostgresStore) WriteActivity(userID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO activity_logs (user_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.q.ExecContext(context.Background(), query,
		userID, action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListActivity returns recent activity logs with an optional action filter.
func (s *PostgresStore) ListActivity(ctx context.Context, limit int, action string) ([]domain.ActivityLog, error) {
	query := `SELECT id, user_id, action, resource, resource_id, details, ip, user_agent, created_at
	          FROM activity_logs`
	var args []any

	if action != "" {
		args = append(args, action)
		query += fmt.Sprintf(" WHERE action = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ActivityLog
	for rows.Next() {
		var l domain.ActivityLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

var _ port.Store = (*PostgresStore)(nil)
