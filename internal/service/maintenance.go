package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mattear-com/chefaudit/internal/port"
)

// MaintenanceService re-derives stored aggregates from source rows — the
// repair path when historical data needs a clean recompute.
type MaintenanceService struct {
	store   port.Store
	scoring *ScoringService
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(s port.Store, scoring *ScoringService) *MaintenanceService {
	return &MaintenanceService{store: s, scoring: scoring}
}

// RecalculateAudit reruns the full section-then-audit recompute for one audit.
func (m *MaintenanceService) RecalculateAudit(ctx context.Context, auditID string) error {
	_, err := m.scoring.RecomputeAll(ctx, auditID)
	return err
}

// RecalculateAll reruns the recompute for every audit, one transaction per
// audit so a single bad record does not roll back the rest. Returns the
// number of audits successfully recalculated.
func (m *MaintenanceService) RecalculateAll(ctx context.Context) (int, error) {
	audits, err := m.store.ListAudits(ctx, port.AuditFilter{})
	if err != nil {
		return 0, fmt.Errorf("list audits: %w", err)
	}

	done := 0
	for i := range audits {
		if _, err := m.scoring.RecomputeAll(ctx, audits[i].ID); err != nil {
			slog.Error("recalculate failed", "audit_id", audits[i].ID, "error", err)
			continue
		}
		done++
	}
	slog.Info("recalculated audits", "done", done, "total", len(audits))
	return done, nil
}
