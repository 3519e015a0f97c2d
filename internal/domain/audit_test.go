package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestGradeForPercentage walks the bucket boundaries on both sides.
func TestGradeForPercentage(t *testing.T) {
	cases := []struct {
		percentage string
		want       string
	}{
		{"100", GradeA},
		{"96.0", GradeA},
		{"95.9", GradeB},
		{"90.0", GradeB},
		{"89.9", GradeC},
		{"80.0", GradeC},
		{"79.9", GradeF},
		{"0", GradeF},
	}
	for _, tc := range cases {
		p, err := decimal.NewFromString(tc.percentage)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, GradeForPercentage(p), "percentage %s", tc.percentage)
	}
}

// TestGradeWithReason verifies the critical override wins over any percentage.
func TestGradeWithReason(t *testing.T) {
	a := &Audit{
		Grade:              GradeA,
		TotalPercentage:    decimal.NewFromInt(98),
		HasCriticalFailure: true,
	}
	r := a.GradeWithReason()
	assert.Equal(t, GradeF, r.Grade)
	assert.True(t, r.IsCriticalFailure)

	a.HasCriticalFailure = false
	r = a.GradeWithReason()
	assert.Equal(t, GradeA, r.Grade)
	assert.False(t, r.IsCriticalFailure)
}

// TestAuditStatus checks the derived status line across lifecycle states.
func TestAuditStatus(t *testing.T) {
	a := &Audit{Grade: GradeB}
	assert.Equal(t, "Not Started", a.Status(0))
	assert.Equal(t, "In Progress - 42.5% complete", a.Status(42.5))

	a.IsSubmitted = true
	assert.Equal(t, "Submitted - B", a.Status(100))

	a.HasCriticalFailure = true
	assert.Equal(t, "Submitted - FAILED (Critical Issues)", a.Status(100))
}
