package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ScoringService derives section and audit aggregates from stored question
// responses. Recomputation is always a full pass over source rows — never a
// running delta — so calling it twice with unchanged data yields identical
// output.
type ScoringService struct {
	store port.Store
}

// NewScoringService creates a new scoring service.
func NewScoringService(s port.Store) *ScoringService {
	return &ScoringService{store: s}
}

// RecomputeSection recalculates one audit section from its responses and
// persists the derived fields. It runs against the given store so callers
// can pass a transaction-scoped one. The owning audit is NOT recomputed
// here; callers invoke RecomputeAudit afterwards, in that order, because
// audit aggregation reads persisted section values.
func (s *ScoringService) RecomputeSection(ctx context.Context, st port.Store, auditSectionID string) (*domain.AuditSection, error) {
	sec, err := st.GetAuditSection(ctx, auditSectionID)
	if err != nil {
		return nil, fmt.Errorf("load audit section: %w", err)
	}

	responses, err := st.ListResponsesBySection(ctx, auditSectionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	questions, err := st.ListQuestionsBySection(ctx, sec.SectionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[string]*domain.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	scored := decimal.Zero
	possible := decimal.Zero
	critical := false
	for i := range responses {
		r := &responses[i]
		q, ok := byID[r.QuestionID]
		if !ok {
			// Question was removed from the checklist after the response was
			// recorded; the answer no longer contributes to the rollup.
			slog.Warn("response references unknown question",
				"audit_section_id", auditSectionID, "question_id", r.QuestionID)
			continue
		}
		scored = scored.Add(r.ScoredPoints)
		possible = possible.Add(q.PossiblePoints)
		if r.IsCriticalFailure(q) {
			critical = true
		}
	}

	sec.ScoredPoints = scored
	sec.PossiblePoints = possible
	sec.HasCriticalFailure = critical
	sec.SectionPercentage = percentage(scored, possible)

	if err := st.UpdateAuditSectionScores(ctx, sec); err != nil {
		return nil, fmt.Errorf("persist section scores: %w", err)
	}
	return sec, nil
}

// RecomputeAudit recalculates the audit aggregates from its already
// persisted section rollups. An audit with zero sections is valid and
// resolves to possible=0, percentage 0, grade F.
func (s *ScoringService) RecomputeAudit(ctx context.Context, st port.Store, auditID string) (*domain.Audit, error) {
	audit, err := st.GetAudit(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("load audit: %w", err)
	}

	sections, err := st.ListAuditSections(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("list audit sections: %w", err)
	}

	scored := decimal.Zero
	possible := decimal.Zero
	critical := false
	for i := range sections {
		scored = scored.Add(sections[i].ScoredPoints)
		possible = possible.Add(sections[i].PossiblePoints)
		if sections[i].HasCriticalFailure {
			critical = true
		}
	}

	audit.TotalScored = scored
	audit.TotalPossible = possible
	audit.TotalPercentage = percentage(scored, possible)
	audit.HasCriticalFailure = critical

	// The single most important rule in the system: any critical failure
	// forces F regardless of percentage.
	if critical {
		audit.Grade = domain.GradeF
	} else {
		audit.Grade = domain.GradeForPercentage(audit.TotalPercentage)
	}

	if err := st.UpdateAuditAggregates(ctx, audit); err != nil {
		return nil, fmt.Errorf("persist audit totals: %w", err)
	}
	return audit, nil
}

// RecomputeAll re-derives every section of the audit and then the audit
// itself, inside one transaction.
func (s *ScoringService) RecomputeAll(ctx context.Context, auditID string) (*domain.Audit, error) {
	var audit *domain.Audit
	err := s.store.RunInTx(ctx, func(tx port.Store) error {
		var err error
		audit, err = s.RecomputeAllWith(ctx, tx, auditID)
		return err
	})
	return audit, err
}

// RecomputeAllWith is RecomputeAll against a caller-provided (typically
// transaction-scoped) store.
func (s *ScoringService) RecomputeAllWith(ctx context.Context, st port.Store, auditID string) (*domain.Audit, error) {
	sections, err := st.ListAuditSections(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("list audit sections: %w", err)
	}
	for i := range sections {
		if _, err := s.RecomputeSection(ctx, st, sections[i].ID); err != nil {
			return nil, err
		}
	}
	return s.RecomputeAudit(ctx, st, auditID)
}

// percentage returns round(scored/possible*100, 2), or zero when nothing is
// possible.
func percentage(scored, possible decimal.Decimal) decimal.Decimal {
	if !possible.IsPositive() {
		return decimal.Zero.Round(2)
	}
	return scored.Div(possible).Mul(hundred).Round(2)
}
