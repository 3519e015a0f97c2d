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

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// failCritical saves a zero on the critical question and returns the audit
// and its auto-created corrective action.
func failCritical(t *testing.T, e *testEnv) (*domain.Audit, domain.CorrectiveAction) {
	t.Helper()
	audit := e.newAudit(t, e.auditor)
	e.save(t, e.auditor, audit.ID, e.qCritical, "0", "cold chain broken")

	actions, err := e.store.ListCorrectiveActionsByAudit(context.Background(), audit.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	return audit, actions[0]
}

// TestAutoCreatedActionFields checks the policy defaults: critical risk,
// assigned to the manager on duty, deadline on the audit date.
func TestAutoCreatedActionFields(t *testing.T) {
	e := newTestEnv(t)
	audit, action := failCritical(t, e)

	assert.Equal(t, domain.RiskCritical, action.RiskLevel)
	assert.Equal(t, audit.ManagerOnDuty, action.AssignedTo)
	assert.True(t, action.Deadline.Equal(audit.AuditDate))
	assert.Contains(t, action.Description, e.qCritical.Text)
	assert.False(t, action.Completed)
	assert.Nil(t, action.CompletionDate)
}

// TestCompletionDateSetOnce: the first completion stamps the date; reopening
// and completing again leaves the original stamp.
func TestCompletionDateSetOnce(t *testing.T) {
	e := newTestEnv(t)
	_, action := failCritical(t, e)
	ctx := context.Background()

	done, err := e.corrective.Update(ctx, e.auditor, action.ID, UpdateInput{
		Completed: boolPtr(true),
		Comments:  strPtr("replaced compressor"),
	})
	require.NoError(t, err)
	require.NotNil(t, done.CompletionDate)
	stamp := *done.CompletionDate

	// Reopen, then complete again later.
	_, err = e.corrective.Update(ctx, e.auditor, action.ID, UpdateInput{Completed: boolPtr(false)})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	redone, err := e.corrective.Update(ctx, e.auditor, action.ID, UpdateInput{Completed: boolPtr(true)})
	require.NoError(t, err)

	require.NotNil(t, redone.CompletionDate)
	assert.True(t, redone.CompletionDate.Equal(stamp))
}

// TestCorrectiveUpdateAuthz scopes updates to the owning auditor or admins.
func TestCorrectiveUpdateAuthz(t *testing.T) {
	e := newTestEnv(t)
	_, action := failCritical(t, e)
	ctx := context.Background()

	_, err := e.corrective.Update(ctx, e.other, action.ID, UpdateInput{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, port.ErrNotFound)

	_, err = e.corrective.Update(ctx, e.admin, action.ID, UpdateInput{Completed: boolPtr(true)})
	assert.NoError(t, err)
}

// TestListByAuditAuthz hides foreign audits' actions behind not-found.
func TestListByAuditAuthz(t *testing.T) {
	e := newTestEnv(t)
	audit, _ := failCritical(t, e)
	ctx := context.Background()

	_, err := e.corrective.ListByAudit(ctx, e.other, audit.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)

	actions, err := e.corrective.ListByAudit(ctx, e.admin, audit.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}
