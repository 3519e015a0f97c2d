package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
)

// LifecycleService orchestrates the audit state machine:
// Not Started -> In Progress -> Submitted. Submission is terminal;
// SubmittedAt is set once and never cleared.
type LifecycleService struct {
	store    port.Store
	scoring  *ScoringService
	progress *ProgressService
}

// NewLifecycleService creates a new lifecycle service.
func NewLifecycleService(s port.Store, scoring *ScoringService, progress *ProgressService) *LifecycleService {
	return &LifecycleService{store: s, scoring: scoring, progress: progress}
}

// CreateAuditInput is the payload for starting a new audit visit.
type CreateAuditInput struct {
	RestaurantID     string    `json:"restaurant_id"`
	AuditDate        time.Time `json:"audit_date"`
	ManagerOnDuty    string    `json:"manager_on_duty"`
	AuditorSignature string    `json:"auditor_signature"`
	AuditeeSignature string    `json:"auditee_signature"`
}

// CreateAudit creates an audit with all aggregates zeroed and eagerly
// initializes one rollup row per checklist section. RecomputeAudit tolerates
// zero sections anyway, so a checklist extended later still works via
// lazy get-or-create on response save.
func (l *LifecycleService) CreateAudit(ctx context.Context, uc *domain.UserContext, in CreateAuditInput) (*domain.Audit, error) {
	if _, err := l.store.GetRestaurant(ctx, in.RestaurantID); err != nil {
		return nil, err
	}

	var audit *domain.Audit
	err := l.store.RunInTx(ctx, func(tx port.Store) error {
		var err error
		audit, err = tx.CreateAudit(ctx, &domain.Audit{
			RestaurantID:     in.RestaurantID,
			AuditDate:        in.AuditDate,
			ManagerOnDuty:    in.ManagerOnDuty,
			AuditorID:        uc.UserID,
			AuditorName:      uc.Name,
			AuditorSignature: in.AuditorSignature,
			AuditeeSignature: in.AuditeeSignature,
			Grade:            domain.GradeF, // zero possible points grades F until scored
		})
		if err != nil {
			return fmt.Errorf("create audit: %w", err)
		}

		sections, err := tx.ListSections(ctx)
		if err != nil {
			return fmt.Errorf("list sections: %w", err)
		}
		for i := range sections {
			if _, err := tx.GetOrCreateAuditSection(ctx, audit.ID, sections[i].ID); err != nil {
				return fmt.Errorf("initialize audit section: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("audit created", "audit_id", audit.ID, "restaurant_id", in.RestaurantID, "auditor_id", uc.UserID)
	return audit, nil
}

// Submit finalizes an audit: guard, full recompute, previous-audit snapshot,
// then the submitted flag — all inside one transaction, so either the whole
// transition commits or none of it does.
//
// Guard failures (already submitted, nothing answered) are user-facing
// rejections that leave the audit untouched. A recompute failure aborts the
// submission entirely.
func (l *LifecycleService) Submit(ctx context.Context, uc *domain.UserContext, auditID string) (*domain.Audit, float64, error) {
	var (
		audit    *domain.Audit
		progress float64
	)

	err := l.store.RunInTx(ctx, func(tx port.Store) error {
		var err error
		audit, err = tx.GetAudit(ctx, auditID)
		if err != nil {
			return err
		}
		if !domain.CanActOnAudit(uc, audit) {
			return port.ErrNotFound
		}
		if audit.IsSubmitted {
			return port.ErrAlreadySubmitted
		}

		progress, err = l.progress.AuditProgressWith(ctx, tx, auditID)
		if err != nil {
			return fmt.Errorf("compute progress: %w", err)
		}
		if progress == 0 {
			return port.ErrNothingAnswered
		}

		audit, err = l.scoring.RecomputeAllWith(ctx, tx, auditID)
		if err != nil {
			return fmt.Errorf("final recompute: %w", err)
		}

		// Best-effort comparison metadata; never blocks submission.
		l.snapshotPrevious(ctx, tx, audit)

		now := time.Now()
		if err := tx.MarkAuditSubmitted(ctx, auditID, now); err != nil {
			return fmt.Errorf("mark submitted: %w", err)
		}
		audit.IsSubmitted = true
		audit.SubmittedAt = &now
		return nil
	})
	if err != nil {
		if !errors.Is(err, port.ErrNotFound) && !errors.Is(err, port.ErrAlreadySubmitted) && !errors.Is(err, port.ErrNothingAnswered) {
			slog.Error("submit failed", "audit_id", auditID, "error", err)
		}
		return nil, 0, err
	}

	slog.Info("audit submitted", "audit_id", auditID, "grade", audit.Grade,
		"percentage", audit.TotalPercentage, "critical", audit.HasCriticalFailure)
	return audit, progress, nil
}

// snapshotPrevious copies date, score and auditor name from the most recent
// previously submitted audit of the same restaurant onto this one. Failures
// are logged and swallowed.
func (l *LifecycleService) snapshotPrevious(ctx context.Context, st port.Store, audit *domain.Audit) {
	prev, err := st.LatestSubmittedAuditBefore(ctx, audit.RestaurantID, audit.AuditDate)
	if err != nil {
		if !errors.Is(err, port.ErrNotFound) {
			slog.Warn("previous audit lookup failed", "audit_id", audit.ID, "error", err)
		}
		return
	}

	prevDate := prev.AuditDate
	prevScore := prev.TotalPercentage
	audit.PreviousAuditDate = &prevDate
	audit.PreviousAuditScore = &prevScore
	audit.PreviousAuditor = prev.AuditorName

	if err := st.UpdateAuditPrevious(ctx, audit); err != nil {
		slog.Warn("saving previous audit info failed", "audit_id", audit.ID, "error", err)
	}
}

// Delete removes an audit and, by ownership cascade, its sections and
// responses. Allowed for admins and the owning auditor.
func (l *LifecycleService) Delete(ctx context.Context, uc *domain.UserContext, auditID string) error {
	audit, err := l.store.GetAudit(ctx, auditID)
	if err != nil {
		return err
	}
	if !domain.CanActOnAudit(uc, audit) {
		return port.ErrNotFound
	}
	if err := l.store.DeleteAudit(ctx, auditID); err != nil {
		return fmt.Errorf("delete audit: %w", err)
	}
	slog.Info("audit deleted", "audit_id", auditID, "by", uc.UserID)
	return nil
}
