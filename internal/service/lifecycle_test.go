package service

import (
	"context"
	"testing"
	"time"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateAuditStartsZeroed: fresh audits carry zero aggregates, grade F
// and one rollup row per checklist section.
func TestCreateAuditStartsZeroed(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)

	assert.True(t, audit.TotalScored.IsZero())
	assert.True(t, audit.TotalPossible.IsZero())
	assert.Equal(t, domain.GradeF, audit.Grade)
	assert.False(t, audit.IsSubmitted)
	assert.Nil(t, audit.SubmittedAt)

	sections, err := e.store.ListAuditSections(context.Background(), audit.ID)
	require.NoError(t, err)
	assert.Len(t, sections, 2)
}

// TestCreateAuditUnknownRestaurant fails with not-found.
func TestCreateAuditUnknownRestaurant(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.lifecycle.CreateAudit(context.Background(), e.auditor, CreateAuditInput{
		RestaurantID: "missing",
		AuditDate:    time.Now(),
	})
	assert.ErrorIs(t, err, port.ErrNotFound)
}

// TestSubmitRejectsEmptyAudit: nothing answered means no submission.
func TestSubmitRejectsEmptyAudit(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)

	_, _, err := e.lifecycle.Submit(context.Background(), e.auditor, audit.ID)
	assert.ErrorIs(t, err, port.ErrNothingAnswered)

	reloaded, err := e.store.GetAudit(context.Background(), audit.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsSubmitted)
}

// TestSubmitHappyPath finalizes the audit with recomputed aggregates.
func TestSubmitHappyPath(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)
	ctx := context.Background()

	e.save(t, e.auditor, audit.ID, e.qCritical, "10", "")
	e.save(t, e.auditor, audit.ID, e.qRegular, "5", "")
	e.save(t, e.auditor, audit.ID, e.qFloor, "4", "minor spill")

	submitted, progress, err := e.lifecycle.Submit(ctx, e.auditor, audit.ID)
	require.NoError(t, err)
	assert.True(t, submitted.IsSubmitted)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, 100.0, progress)
	// 19/20 = 95% -> B.
	assert.Equal(t, "95", submitted.TotalPercentage.String())
	assert.Equal(t, domain.GradeB, submitted.Grade)
}

// TestSubmitTwiceFails: the second submit is rejected and SubmittedAt keeps
// its original value.
func TestSubmitTwiceFails(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)
	ctx := context.Background()

	e.save(t, e.auditor, audit.ID, e.qCritical, "10", "")

	first, _, err := e.lifecycle.Submit(ctx, e.auditor, audit.ID)
	require.NoError(t, err)
	firstAt := *first.SubmittedAt

	_, _, err = e.lifecycle.Submit(ctx, e.auditor, audit.ID)
	assert.ErrorIs(t, err, port.ErrAlreadySubmitted)

	reloaded, err := e.store.GetAudit(ctx, audit.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.SubmittedAt)
	assert.True(t, reloaded.SubmittedAt.Equal(firstAt))
}

// TestSubmitAuthz hides foreign audits behind not-found.
func TestSubmitAuthz(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)

	e.save(t, e.auditor, audit.ID, e.qCritical, "10", "")

	_, _, err := e.lifecycle.Submit(context.Background(), e.other, audit.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

// TestPreviousAuditSnapshot: submitting a later audit copies date, score and
// auditor name from the most recent earlier submitted one.
func TestPreviousAuditSnapshot(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	first, err := e.lifecycle.CreateAudit(ctx, e.auditor, CreateAuditInput{
		RestaurantID:  e.restaurant.ID,
		AuditDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		ManagerOnDuty: "Morgan Manager",
	})
	require.NoError(t, err)
	e.save(t, e.auditor, first.ID, e.qCritical, "10", "")
	e.save(t, e.auditor, first.ID, e.qRegular, "5", "")
	e.save(t, e.auditor, first.ID, e.qFloor, "5", "")
	firstSubmitted, _, err := e.lifecycle.Submit(ctx, e.auditor, first.ID)
	require.NoError(t, err)

	second, err := e.lifecycle.CreateAudit(ctx, e.auditor, CreateAuditInput{
		RestaurantID:  e.restaurant.ID,
		AuditDate:     time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		ManagerOnDuty: "Morgan Manager",
	})
	require.NoError(t, err)
	e.save(t, e.auditor, second.ID, e.qCritical, "8", "")
	secondSubmitted, _, err := e.lifecycle.Submit(ctx, e.auditor, second.ID)
	require.NoError(t, err)

	require.NotNil(t, secondSubmitted.PreviousAuditDate)
	assert.True(t, secondSubmitted.PreviousAuditDate.Equal(firstSubmitted.AuditDate))
	require.NotNil(t, secondSubmitted.PreviousAuditScore)
	assert.True(t, secondSubmitted.PreviousAuditScore.Equal(firstSubmitted.TotalPercentage))
	assert.Equal(t, e.auditor.Name, secondSubmitted.PreviousAuditor)
}

// TestSubmitWithoutPreviousAudit leaves the snapshot fields empty and still
// succeeds.
func TestSubmitWithoutPreviousAudit(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)

	e.save(t, e.auditor, audit.ID, e.qCritical, "10", "")

	submitted, _, err := e.lifecycle.Submit(context.Background(), e.auditor, audit.ID)
	require.NoError(t, err)
	assert.Nil(t, submitted.PreviousAuditDate)
	assert.Nil(t, submitted.PreviousAuditScore)
	assert.Empty(t, submitted.PreviousAuditor)
}

// TestDeleteAudit removes the audit and cascades to its sections and
// responses.
func TestDeleteAudit(t *testing.T) {
	e := newTestEnv(t)
	audit := e.newAudit(t, e.auditor)
	ctx := context.Background()

	e.save(t, e.auditor, audit.ID, e.qRegular, "3", "")

	// Strangers cannot delete.
	err := e.lifecycle.Delete(ctx, e.other, audit.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)

	require.NoError(t, e.lifecycle.Delete(ctx, e.auditor, audit.ID))

	_, err = e.store.GetAudit(ctx, audit.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)
	sections, err := e.store.ListAuditSections(ctx, audit.ID)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

// TestRecalculateAll re-derives aggregates for every audit and reports the
// count.
func TestRecalculateAll(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a1 := e.newAudit(t, e.auditor)
	a2 := e.newAudit(t, e.auditor)
	e.save(t, e.auditor, a1.ID, e.qCritical, "10", "")
	e.save(t, e.auditor, a2.ID, e.qRegular, "5", "")

	done, err := e.maintenance.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, done)
}
