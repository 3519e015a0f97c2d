package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunInTxRollsBack restores the full state when the callback fails.
func TestRunInTxRollsBack(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	r, err := m.CreateRestaurant(ctx, &domain.Restaurant{Code: "R1", Name: "Before"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.RunInTx(ctx, func(tx port.Store) error {
		if _, err := tx.CreateRestaurant(ctx, &domain.Restaurant{Code: "R2", Name: "Inside"}); err != nil {
			return err
		}
		if _, err := tx.CreateAudit(ctx, &domain.Audit{RestaurantID: r.ID, AuditDate: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	restaurants, err := m.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, restaurants, 1)
	audits, err := m.ListAudits(ctx, port.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, audits)
}

// TestRunInTxCommits keeps writes when the callback succeeds.
func TestRunInTxCommits(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	err := m.RunInTx(ctx, func(tx port.Store) error {
		_, err := tx.CreateRestaurant(ctx, &domain.Restaurant{Code: "R1", Name: "Kept"})
		return err
	})
	require.NoError(t, err)

	restaurants, err := m.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, restaurants, 1)
}

// TestDuplicateRestaurantCode enforces code uniqueness.
func TestDuplicateRestaurantCode(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.CreateRestaurant(ctx, &domain.Restaurant{Code: "R1", Name: "First"})
	require.NoError(t, err)
	_, err = m.CreateRestaurant(ctx, &domain.Restaurant{Code: "R1", Name: "Second"})
	assert.ErrorIs(t, err, port.ErrDuplicate)
}

// TestGetOrCreateAuditSectionIsIdempotent returns the same row for the same
// key pair.
func TestGetOrCreateAuditSectionIsIdempotent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	sec := m.SeedSection(domain.Section{Name: "Food Safety"})
	a, err := m.CreateAudit(ctx, &domain.Audit{RestaurantID: "r", AuditDate: time.Now()})
	require.NoError(t, err)

	first, err := m.GetOrCreateAuditSection(ctx, a.ID, sec.ID)
	require.NoError(t, err)
	second, err := m.GetOrCreateAuditSection(ctx, a.ID, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

// TestLatestSubmittedAuditBefore picks the newest submitted audit strictly
// before the given date.
func TestLatestSubmittedAuditBefore(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC) }

	older, err := m.CreateAudit(ctx, &domain.Audit{RestaurantID: "r", AuditDate: day(1)})
	require.NoError(t, err)
	newer, err := m.CreateAudit(ctx, &domain.Audit{RestaurantID: "r", AuditDate: day(10)})
	require.NoError(t, err)
	unsubmitted, err := m.CreateAudit(ctx, &domain.Audit{RestaurantID: "r", AuditDate: day(15)})
	require.NoError(t, err)
	_ = unsubmitted

	require.NoError(t, m.MarkAuditSubmitted(ctx, older.ID, day(1)))
	require.NoError(t, m.MarkAuditSubmitted(ctx, newer.ID, day(10)))

	got, err := m.LatestSubmittedAuditBefore(ctx, "r", day(20))
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	// Strictly before: an audit on the boundary date is excluded.
	got, err = m.LatestSubmittedAuditBefore(ctx, "r", day(10))
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = m.LatestSubmittedAuditBefore(ctx, "r", day(1))
	assert.ErrorIs(t, err, port.ErrNotFound)
}
