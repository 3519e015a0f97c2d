package service

import (
	"strings"

	"github.com/mattear-com/chefaudit/internal/domain"
	"github.com/shopspring/decimal"
)

// ParseScore turns raw wire input into a score value. Empty or malformed
// input becomes zero — the data-entry UI is forgiving, not rejecting.
func ParseScore(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ClampScore bounds a candidate score to [0, question.PossiblePoints].
// Overtyped values are silently reduced to the ceiling, never rejected.
// This must run before persistence: aggregation never sees an out-of-range
// value.
func ClampScore(score decimal.Decimal, q *domain.Question) decimal.Decimal {
	if score.IsNegative() {
		return decimal.Zero
	}
	if score.GreaterThan(q.PossiblePoints) {
		return q.PossiblePoints
	}
	return score
}
