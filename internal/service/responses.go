package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/shopspring/decimal"
)

// ResponseService validates and records question responses and drives the
// synchronous recomputation cascade: section first, then audit. No hidden
// triggers — callers can reason about exactly what runs when.
type ResponseService struct {
	store      port.Store
	scoring    *ScoringService
	corrective *CorrectiveService
	progress   *ProgressService
}

// NewResponseService creates a new response service.
func NewResponseService(s port.Store, scoring *ScoringService, corrective *CorrectiveService, progress *ProgressService) *ResponseService {
	return &ResponseService{store: s, scoring: scoring, corrective: corrective, progress: progress}
}

// SaveResponseInput is the submission boundary payload for one answer.
type SaveResponseInput struct {
	AuditID      string
	SectionID    string
	QuestionID   string
	ScoredPoints decimal.Decimal
	Comments     string
}

// Snapshot is the full post-recomputation state returned to the caller after
// a save or submit.
type Snapshot struct {
	SectionScored         decimal.Decimal `json:"section_score"`
	SectionPercentage     decimal.Decimal `json:"section_percentage"`
	SectionHasCritical    bool            `json:"section_has_critical_failure"`
	TotalScored           decimal.Decimal `json:"total_score"`
	TotalPossible         decimal.Decimal `json:"total_possible"`
	TotalPercentage       decimal.Decimal `json:"total_percentage"`
	Grade                 string          `json:"grade"`
	HasCriticalFailure    bool            `json:"has_critical_failure"`
	IsSubmitted           bool            `json:"is_submitted"`
	AuditStatus           string          `json:"audit_status"`
	ProgressPercentage    float64         `json:"progress_percentage"`
	NeedsCorrectiveAction bool            `json:"needs_corrective_action"`
}

// SaveResponse validates, persists and aggregates one answer inside a single
// transaction. The save is not successful unless its consequent
// recomputation succeeded; on any failure the whole write rolls back.
func (s *ResponseService) SaveResponse(ctx context.Context, uc *domain.UserContext, in SaveResponseInput) (*Snapshot, error) {
	var snap *Snapshot

	err := s.store.RunInTx(ctx, func(tx port.Store) error {
		audit, err := tx.GetAudit(ctx, in.AuditID)
		if err != nil {
			return err
		}
		// Authorization failures surface as not-found to avoid leaking
		// audit existence.
		if !domain.CanActOnAudit(uc, audit) {
			return port.ErrNotFound
		}

		question, err := tx.GetQuestion(ctx, in.QuestionID)
		if err != nil {
			return err
		}
		if question.SectionID != in.SectionID {
			return port.ErrNotFound
		}

		// Clamp before persistence; aggregation must never see an
		// out-of-range value.
		score := ClampScore(in.ScoredPoints, question)

		sec, err := tx.GetOrCreateAuditSection(ctx, in.AuditID, in.SectionID)
		if err != nil {
			return fmt.Errorf("get or create audit section: %w", err)
		}

		resp, err := tx.GetResponseByQuestion(ctx, sec.ID, in.QuestionID)
		switch {
		case err == nil:
			resp.ScoredPoints = score
			resp.Comments = in.Comments
			resp.NeedsCorrectiveAction = resp.IsCriticalFailure(question)
			if err := tx.UpdateResponse(ctx, resp); err != nil {
				return fmt.Errorf("update response: %w", err)
			}
		case errors.Is(err, port.ErrNotFound):
			resp = &domain.QuestionResponse{
				AuditSectionID: sec.ID,
				QuestionID:     in.QuestionID,
				ScoredPoints:   score,
				Comments:       in.Comments,
			}
			resp.NeedsCorrectiveAction = resp.IsCriticalFailure(question)
			if resp, err = tx.CreateResponse(ctx, resp); err != nil {
				return fmt.Errorf("create response: %w", err)
			}
		default:
			return fmt.Errorf("load response: %w", err)
		}

		if err := s.corrective.ApplyPolicy(ctx, tx, audit, question, resp); err != nil {
			return err
		}

		// Section must persist before the audit recompute reads it.
		sec, err = s.scoring.RecomputeSection(ctx, tx, sec.ID)
		if err != nil {
			return err
		}
		audit, err = s.scoring.RecomputeAudit(ctx, tx, in.AuditID)
		if err != nil {
			return err
		}

		progress, err := s.progress.AuditProgressWith(ctx, tx, in.AuditID)
		if err != nil {
			return err
		}

		snap = &Snapshot{
			SectionScored:         sec.ScoredPoints,
			SectionPercentage:     sec.SectionPercentage,
			SectionHasCritical:    sec.HasCriticalFailure,
			TotalScored:           audit.TotalScored,
			TotalPossible:         audit.TotalPossible,
			TotalPercentage:       audit.TotalPercentage,
			Grade:                 audit.Grade,
			HasCriticalFailure:    audit.HasCriticalFailure,
			IsSubmitted:           audit.IsSubmitted,
			AuditStatus:           audit.Status(progress),
			ProgressPercentage:    progress,
			NeedsCorrectiveAction: resp.NeedsCorrectiveAction,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, port.ErrNotFound) {
			slog.Error("save response failed",
				"audit_id", in.AuditID, "section_id", in.SectionID,
				"question_id", in.QuestionID, "error", err)
		}
		return nil, err
	}
	return snap, nil
}
