package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AuditSection is the per-section rollup for one audit. Fully derived from
// its question responses; never hand-edited.
type AuditSection struct {
	ID                 string          `json:"id"                   db:"id"`
	AuditID            string          `json:"audit_id"             db:"audit_id"`
	SectionID          string          `json:"section_id"           db:"section_id"`
	ScoredPoints       decimal.Decimal `json:"scored_points"        db:"scored_points"`
	PossiblePoints     decimal.Decimal `json:"possible_points"      db:"possible_points"`
	SectionPercentage  decimal.Decimal `json:"section_percentage"   db:"section_percentage"`
	HasCriticalFailure bool            `json:"has_critical_failure" db:"has_critical_failure"`
}

// QuestionResponse is one auditor's answer to one question within an audit
// section. The atomic unit of audit data; everything else rolls up from here.
type QuestionResponse struct {
	ID                    string          `json:"id"                      db:"id"`
	AuditSectionID        string          `json:"audit_section_id"        db:"audit_section_id"`
	QuestionID            string          `json:"question_id"             db:"question_id"`
	ScoredPoints          decimal.Decimal `json:"scored_points"           db:"scored_points"`
	Comments              string          `json:"comments"                db:"comments"`
	NeedsCorrectiveAction bool            `json:"needs_corrective_action" db:"needs_corrective_action"`
}

// IsAnswered reports whether the response counts toward progress: a non-blank
// comment or any points at all.
func (r *QuestionResponse) IsAnswered() bool {
	return strings.TrimSpace(r.Comments) != "" || r.ScoredPoints.IsPositive()
}

// IsCriticalFailure reports whether this response fails a critical question.
func (r *QuestionResponse) IsCriticalFailure(q *Question) bool {
	return q.IsCritical && r.ScoredPoints.IsZero()
}
