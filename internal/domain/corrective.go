package domain

import "time"

// Risk levels for corrective actions.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// CorrectiveAction is a remediation task tied to one failed question
// response. Auto-created by policy for critical failures, or entered by an
// operator. CompletionDate is stamped the first time Completed flips to true
// and never overwritten.
type CorrectiveAction struct {
	ID             string     `json:"id"              db:"id"`
	AuditID        string     `json:"audit_id"        db:"audit_id"`
	ResponseID     string     `json:"response_id"     db:"response_id"`
	Description    string     `json:"description"     db:"description"`
	RiskLevel      string     `json:"risk_level"      db:"risk_level"`
	AssignedTo     string     `json:"assigned_to"     db:"assigned_to"`
	Deadline       time.Time  `json:"deadline"        db:"deadline"`
	Completed      bool       `json:"completed"       db:"completed"`
	CompletionDate *time.Time `json:"completion_date,omitempty" db:"completion_date"`
	Comments       string     `json:"comments"        db:"comments"`
	CreatedAt      time.Time  `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"      db:"updated_at"`
}
