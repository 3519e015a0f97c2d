package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Grade letters. F is both the lowest percentage bucket and the forced grade
// for any audit with a critical failure.
const (
	GradeA = "A" // 96.0 - 100
	GradeB = "B" // 90.0 - 95.9
	GradeC = "C" // 80.0 - 89.9
	GradeF = "F" // below 80, or any critical failure
)

// Audit is one scored inspection visit to a restaurant. The aggregate fields
// (totals, percentage, grade, critical flag) are derived from question
// responses and are only written by the scoring service.
type Audit struct {
	ID               string    `json:"id"                db:"id"`
	RestaurantID     string    `json:"restaurant_id"     db:"restaurant_id"`
	AuditDate        time.Time `json:"audit_date"        db:"audit_date"`
	ManagerOnDuty    string    `json:"manager_on_duty"   db:"manager_on_duty"`
	AuditorID        string    `json:"auditor_id"        db:"auditor_id"`
	AuditorName      string    `json:"auditor_name"      db:"auditor_name"`
	AuditorSignature string    `json:"auditor_signature" db:"auditor_signature"` // opaque blob, never parsed
	AuditeeSignature string    `json:"auditee_signature" db:"auditee_signature"`

	TotalScored        decimal.Decimal `json:"total_scored"         db:"total_scored"`
	TotalPossible      decimal.Decimal `json:"total_possible"       db:"total_possible"`
	TotalPercentage    decimal.Decimal `json:"total_percentage"     db:"total_percentage"`
	Grade              string          `json:"grade"                db:"grade"`
	HasCriticalFailure bool            `json:"has_critical_failure" db:"has_critical_failure"`

	// Snapshot of the last submitted audit for the same restaurant, copied at
	// submission time. Best-effort metadata.
	PreviousAuditDate  *time.Time       `json:"previous_audit_date,omitempty"  db:"previous_audit_date"`
	PreviousAuditScore *decimal.Decimal `json:"previous_audit_score,omitempty" db:"previous_audit_score"`
	PreviousAuditor    string           `json:"previous_auditor"               db:"previous_auditor"`

	IsSubmitted bool       `json:"is_submitted"           db:"is_submitted"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GradeForPercentage buckets a percentage into a letter grade. The critical
// failure override is NOT applied here; callers that have the flag must
// check it first.
func GradeForPercentage(percentage decimal.Decimal) string {
	switch {
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(96)):
		return GradeA
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return GradeB
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return GradeC
	default:
		return GradeF
	}
}

// Status returns the human-readable lifecycle status given the current
// progress percentage. Progress is passed in because it is derived from
// reference data the audit record does not carry.
func (a *Audit) Status(progress float64) string {
	switch {
	case a.IsSubmitted && a.HasCriticalFailure:
		return "Submitted - FAILED (Critical Issues)"
	case a.IsSubmitted:
		return fmt.Sprintf("Submitted - %s", a.Grade)
	case progress > 0:
		return fmt.Sprintf("In Progress - %.1f%% complete", progress)
	default:
		return "Not Started"
	}
}

// GradeReason explains how the current grade was reached.
type GradeReason struct {
	Grade             string          `json:"grade"`
	Reason            string          `json:"reason"`
	Percentage        decimal.Decimal `json:"percentage"`
	IsCriticalFailure bool            `json:"is_critical_failure"`
}

// GradeWithReason returns the grade together with the rule that produced it.
func (a *Audit) GradeWithReason() GradeReason {
	if a.HasCriticalFailure {
		return GradeReason{
			Grade:             GradeF,
			Reason:            "Critical failure detected",
			Percentage:        a.TotalPercentage,
			IsCriticalFailure: true,
		}
	}
	return GradeReason{
		Grade:      a.Grade,
		Reason:     "Based on percentage score",
		Percentage: a.TotalPercentage,
	}
}
