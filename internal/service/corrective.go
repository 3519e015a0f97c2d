package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
)

// CorrectiveService decides when a critical failure spawns a remediation
// record, and manages operator updates to existing records. The policy is
// create-only: a response that later passes keeps its earlier action.
type CorrectiveService struct {
	store port.Store
}

// NewCorrectiveService creates a new corrective action service.
func NewCorrectiveService(s port.Store) *CorrectiveService {
	return &CorrectiveService{store: s}
}

// ApplyPolicy runs after every create-or-update of a response. The caller
// has already set and persisted NeedsCorrectiveAction; this only handles the
// auto-creation side. Exactly one record per response: re-saving the same
// failing answer creates no duplicate.
func (c *CorrectiveService) ApplyPolicy(ctx context.Context, st port.Store, audit *domain.Audit, q *domain.Question, r *domain.QuestionResponse) error {
	if !r.IsCriticalFailure(q) {
		return nil
	}

	exists, err := st.HasCorrectiveActionForResponse(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("check existing corrective action: %w", err)
	}
	if exists {
		return nil
	}

	ca := &domain.CorrectiveAction{
		AuditID:     audit.ID,
		ResponseID:  r.ID,
		Description: fmt.Sprintf("Critical failure in: %s", q.Text),
		RiskLevel:   domain.RiskCritical,
		AssignedTo:  audit.ManagerOnDuty,
		Deadline:    audit.AuditDate, // due immediately
		Comments:    "Automatically created due to critical failure",
	}
	if _, err := st.CreateCorrectiveAction(ctx, ca); err != nil {
		return fmt.Errorf("create corrective action: %w", err)
	}
	slog.Info("corrective action auto-created",
		"audit_id", audit.ID, "question_id", q.ID, "response_id", r.ID)
	return nil
}

// ListByAudit returns corrective actions for an audit the user may view.
func (c *CorrectiveService) ListByAudit(ctx context.Context, uc *domain.UserContext, auditID string) ([]domain.CorrectiveAction, error) {
	audit, err := c.store.GetAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if !domain.CanViewAudit(uc, audit) {
		return nil, port.ErrNotFound
	}
	return c.store.ListCorrectiveActionsByAudit(ctx, auditID)
}

// UpdateInput carries operator edits to a corrective action.
type UpdateInput struct {
	Completed  *bool   `json:"completed"`
	Comments   *string `json:"comments"`
	AssignedTo *string `json:"assigned_to"`
	RiskLevel  *string `json:"risk_level"`
}

// Update applies operator edits. CompletionDate is stamped on the first
// transition to completed and never overwritten afterwards, even if the
// record is reopened and completed again.
func (c *CorrectiveService) Update(ctx context.Context, uc *domain.UserContext, id string, in UpdateInput) (*domain.CorrectiveAction, error) {
	ca, err := c.store.GetCorrectiveAction(ctx, id)
	if err != nil {
		return nil, err
	}
	audit, err := c.store.GetAudit(ctx, ca.AuditID)
	if err != nil {
		return nil, err
	}
	if !domain.CanActOnAudit(uc, audit) {
		return nil, port.ErrNotFound
	}

	if in.Completed != nil {
		ca.Completed = *in.Completed
		if ca.Completed && ca.CompletionDate == nil {
			now := time.Now()
			ca.CompletionDate = &now
		}
	}
	if in.Comments != nil {
		ca.Comments = *in.Comments
	}
	if in.AssignedTo != nil {
		ca.AssignedTo = *in.AssignedTo
	}
	if in.RiskLevel != nil {
		ca.RiskLevel = *in.RiskLevel
	}

	if err := c.store.UpdateCorrectiveAction(ctx, ca); err != nil {
		return nil, fmt.Errorf("update corrective action: %w", err)
	}
	return ca, nil
}
