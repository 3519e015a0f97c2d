package service

import (
	"context"
	"fmt"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/shopspring/decimal"
)

// ProgressService derives completion percentages from responses against the
// reference checklist. Read path only: it never mutates stored state, and
// the denominator is always the count of checklist questions — a question
// with no response row yet still counts as unanswered.
type ProgressService struct {
	store port.Store
}

// NewProgressService creates a new progress service.
func NewProgressService(s port.Store) *ProgressService {
	return &ProgressService{store: s}
}

// SectionStat is the per-section completion and score summary shown on the
// results page.
type SectionStat struct {
	SectionID          string          `json:"section_id"`
	SectionName        string          `json:"section_name"`
	Answered           int             `json:"answered"`
	Total              int             `json:"total"`
	ScoredPoints       decimal.Decimal `json:"scored_points"`
	SectionPercentage  decimal.Decimal `json:"section_percentage"`
	HasCriticalFailure bool            `json:"has_critical_failure"`
	Progress           float64         `json:"progress"`
}

// AuditProgress returns the audit-wide completion percentage.
func (p *ProgressService) AuditProgress(ctx context.Context, auditID string) (float64, error) {
	return p.AuditProgressWith(ctx, p.store, auditID)
}

// AuditProgressWith is AuditProgress against a caller-provided store, so the
// submission guard can read inside its transaction.
func (p *ProgressService) AuditProgressWith(ctx context.Context, st port.Store, auditID string) (float64, error) {
	sections, err := st.ListAuditSections(ctx, auditID)
	if err != nil {
		return 0, fmt.Errorf("list audit sections: %w", err)
	}

	total := 0
	answered := 0
	for i := range sections {
		secTotal, secAnswered, err := p.countSection(ctx, st, &sections[i])
		if err != nil {
			return 0, err
		}
		total += secTotal
		answered += secAnswered
	}
	return toPercent(answered, total), nil
}

// SectionProgress returns the completion percentage for one audit section.
func (p *ProgressService) SectionProgress(ctx context.Context, auditSectionID string) (float64, error) {
	sec, err := p.store.GetAuditSection(ctx, auditSectionID)
	if err != nil {
		return 0, fmt.Errorf("load audit section: %w", err)
	}
	total, answered, err := p.countSection(ctx, p.store, sec)
	if err != nil {
		return 0, err
	}
	return toPercent(answered, total), nil
}

// SectionStats returns per-section summaries for the audit's results view.
func (p *ProgressService) SectionStats(ctx context.Context, auditID string) ([]SectionStat, error) {
	sections, err := p.store.ListAuditSections(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("list audit sections: %w", err)
	}

	stats := make([]SectionStat, 0, len(sections))
	for i := range sections {
		sec := &sections[i]
		ref, err := p.store.GetSection(ctx, sec.SectionID)
		if err != nil {
			return nil, fmt.Errorf("load section: %w", err)
		}
		total, answered, err := p.countSection(ctx, p.store, sec)
		if err != nil {
			return nil, err
		}
		stats = append(stats, SectionStat{
			SectionID:          sec.SectionID,
			SectionName:        ref.Name,
			Answered:           answered,
			Total:              total,
			ScoredPoints:       sec.ScoredPoints,
			SectionPercentage:  sec.SectionPercentage,
			HasCriticalFailure: sec.HasCriticalFailure,
			Progress:           toPercent(answered, total),
		})
	}
	return stats, nil
}

func (p *ProgressService) countSection(ctx context.Context, st port.Store, sec *domain.AuditSection) (total, answered int, err error) {
	questions, err := st.ListQuestionsBySection(ctx, sec.SectionID)
	if err != nil {
		return 0, 0, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return 0, 0, nil
	}

	known := make(map[string]bool, len(questions))
	for i := range questions {
		known[questions[i].ID] = true
	}

	responses, err := st.ListResponsesBySection(ctx, sec.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("list responses: %w", err)
	}
	for i := range responses {
		r := &responses[i]
		if known[r.QuestionID] && r.IsAnswered() {
			answered++
		}
	}
	return len(questions), answered, nil
}

func toPercent(answered, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(answered)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(hundred).
		Round(2)
	f, _ := pct.Float64()
	return f
}
