package domain

import "time"

// ActivityLog records every significant request in the system for compliance.
type ActivityLog struct {
	ID         string    `json:"id"          db:"id"`
	UserID     string    `json:"user_id"     db:"user_id"`
	Action     string    `json:"action"      db:"action"`
	Resource   string    `json:"resource"    db:"resource"`
	ResourceID string    `json:"resource_id" db:"resource_id"`
	Details    string    `json:"details"     db:"details"` // JSON blob
	IP         string    `json:"ip"          db:"ip"`
	UserAgent  string    `json:"user_agent"  db:"user_agent"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Activity action constants.
const (
	ActivityHTTPRequest     = "http_request"
	ActivityResponseSaved   = "response_saved"
	ActivityAuditSubmitted  = "audit_submitted"
	ActivityAuditDeleted    = "audit_deleted"
	ActivityRecalculateAll  = "recalculate_all"
	ActivityActionCompleted = "corrective_action_completed"
)
