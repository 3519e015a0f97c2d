package service

import (
	"context"
	"testing"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaveClampsOvertypedScore verifies an over-maximum score persists as the
// ceiling, not a rejection.
func TestSaveClampsOvertypedScore(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)
	ctx := context.Background()

	e.save(t, e.auditor, audit.ID, e.qCritical, "99", "")

	responses, err := e.store.ListResponsesByAudit(ctx, audit.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "10", responses[0].ScoredPoints.String())
}

// TestSaveNegativeScoreBecomesZero verifies the lower clamp bound.
func TestSaveNegativeScoreBecomesZero(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)

	e.save(t, e.auditor, audit.ID, e.qRegular, "-4", "noted")

	responses, err := e.store.ListResponsesByAudit(context.Background(), audit.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.True(t, responses[0].ScoredPoints.IsZero())
}

// TestSaveUpdatesExistingResponse re-saves the same question and expects one
// row with the latest values, not a second row.
func TestSaveUpdatesExistingResponse(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)

	e.save(t, e.auditor, audit.ID, e.qRegular, "2", "first pass")
	e.save(t, e.auditor, audit.ID, e.qRegular, "4", "second pass")

	responses, err := e.store.ListResponsesByAudit(context.Background(), audit.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "4", responses[0].ScoredPoints.String())
	assert.Equal(t, "second pass", responses[0].Comments)
}

// TestSaveAuthz hides other auditors' audits behind not-found.
func TestSaveAuthz(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)
	ctx := context.Background()

	_, err := e.responses.SaveResponse(ctx, e.other, SaveResponseInput{
		AuditID:      audit.ID,
		SectionID:    e.qRegular.SectionID,
		QuestionID:   e.qRegular.ID,
		ScoredPoints: ParseScore("3"),
	})
	assert.ErrorIs(t, err, port.ErrNotFound)

	// Admins act on any audit.
	_, err = e.responses.SaveResponse(ctx, e.admin, SaveResponseInput{
		AuditID:      audit.ID,
		SectionID:    e.qRegular.SectionID,
		QuestionID:   e.qRegular.ID,
		ScoredPoints: ParseScore("3"),
	})
	assert.NoError(t, err)
}

// TestSaveRejectsMismatchedSection refuses a question id paired with the
// wrong section id.
func TestSaveRejectsMismatchedSection(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)

	_, err := e.responses.SaveResponse(context.Background(), e.auditor, SaveResponseInput{
		AuditID:      audit.ID,
		SectionID:    e.cleaning.ID, // qRegular belongs to Food Safety
		QuestionID:   e.qRegular.ID,
		ScoredPoints: ParseScore("3"),
	})
	assert.ErrorIs(t, err, port.ErrNotFound)
}

// TestCorrectiveActionCreateOnce: a zero on a critical question creates
// exactly one action; re-saving creates no duplicate; recovering the score
// does not delete it.
func TestCorrectiveActionCreateOnce(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)
	ctx := context.Background()

	snap := e.save(t, e.auditor, audit.ID, e.qCritical, "0", "cold chain broken")
	assert.True(t, snap.NeedsCorrectiveAction)

	actions, err := e.store.ListCorrectiveActionsByAudit(ctx, audit.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.RiskCritical, actions[0].RiskLevel)
	assert.Equal(t, "Morgan Manager", actions[0].AssignedTo)

	// Same failing answer again: still one action.
	e.save(t, e.auditor, audit.ID, e.qCritical, "0", "still broken")
	actions, err = e.store.ListCorrectiveActionsByAudit(ctx, audit.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)

	// Recovery does not reconcile the record away.
	snap = e.save(t, e.auditor, audit.ID, e.qCritical, "10", "fixed")
	assert.False(t, snap.NeedsCorrectiveAction)
	actions, err = e.store.ListCorrectiveActionsByAudit(ctx, audit.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}

// TestFoodSafetyWalkthrough is the end-to-end scenario: critical zero drives
// section and audit critical flags, grade F and one auto corrective action;
// recovery clears the flags, regrades from percentage alone and keeps the
// action.
func TestFoodSafetyWalkthrough(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)
	ctx := context.Background()

	snap := e.save(t, e.auditor, audit.ID, e.qCritical, "0", "burner off")
	assert.True(t, snap.SectionHasCritical)
	assert.Equal(t, "0", snap.SectionPercentage.String())
	assert.True(t, snap.HasCriticalFailure)
	assert.Equal(t, domain.GradeF, snap.Grade)

	actions, err := e.store.ListCorrectiveActionsByAudit(ctx, audit.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.RiskCritical, actions[0].RiskLevel)

	snap = e.save(t, e.auditor, audit.ID, e.qCritical, "10", "")
	assert.False(t, snap.SectionHasCritical)
	assert.False(t, snap.HasCriticalFailure)
	// 10 of 10 answered points -> graded from percentage alone.
	assert.Equal(t, "100", snap.TotalPercentage.String())
	assert.Equal(t, domain.GradeA, snap.Grade)

	actions, err = e.store.ListCorrectiveActionsByAudit(ctx, audit.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}
