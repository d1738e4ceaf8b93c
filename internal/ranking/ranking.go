// Package ranking scores and orders therapy recommendations.
package ranking

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"precision-medicine-server/internal/domain"
)

// Component weights of the overall score.
var (
	EfficacyWeight      = decimal.RequireFromString("0.35")
	CompatibilityWeight = decimal.RequireFromString("0.25")
	SafetyWeight        = decimal.RequireFromString("0.25")
	CostWeight          = decimal.RequireFromString("0.15")
)

// OverallScore computes the weighted score from the four component scores.
// Components are clamped to [0,100] and the sum is taken in decimal, so a
// half-way value such as 1.35 rounds up to 1.4.
func OverallScore(r domain.TherapyRecord) float64 {
	sum := EfficacyWeight.Mul(component(r.EfficacyScore)).
		Add(CompatibilityWeight.Mul(component(r.CompatibilityScore))).
		Add(SafetyWeight.Mul(component(r.SafetyScore))).
		Add(CostWeight.Mul(component(r.CostScore)))
	return sum.Round(1).InexactFloat64()
}

func component(v float64) decimal.Decimal {
	return decimal.NewFromFloat(Clamp(v))
}

// Rank returns a new slice sorted by descending overall score. Records without an
// overall score get one computed; present scores are left untouched. Equal scores
// keep their input order.
func Rank(records []domain.TherapyRecord) []domain.TherapyRecord {
	ranked := make([]domain.TherapyRecord, len(records))
	for i, r := range records {
		if !r.HasOverall() {
			r = r.WithOverall(OverallScore(r))
		}
		ranked[i] = r
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Overall() > ranked[j].Overall()
	})
	return ranked
}

// Clamp bounds a score to the 0-100 scale. NaN is treated as 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
