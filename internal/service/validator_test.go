package service

import (
	"testing"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestParseScore defaults blank and malformed input to zero instead of
// rejecting.
func TestParseScore(t *testing.T) {
	assert.True(t, ParseScore("").IsZero())
	assert.True(t, ParseScore("  ").IsZero())
	assert.True(t, ParseScore("not-a-number").IsZero())
	assert.True(t, ParseScore("7.5").Equal(decimal.NewFromFloat(7.5)))
	assert.True(t, ParseScore(" 3 ").Equal(decimal.NewFromInt(3)))
}

// TestClampScore bounds scores to [0, possiblePoints].
func TestClampScore(t *testing.T) {
	q := &domain.Question{PossiblePoints: decimal.NewFromInt(10)}

	assert.True(t, ClampScore(decimal.NewFromInt(-3), q).IsZero())
	assert.True(t, ClampScore(decimal.NewFromInt(15), q).Equal(decimal.NewFromInt(10)))
	assert.True(t, ClampScore(decimal.NewFromFloat(7.25), q).Equal(decimal.NewFromFloat(7.25)))
	assert.True(t, ClampScore(decimal.NewFromInt(10), q).Equal(decimal.NewFromInt(10)))
}
