// Package types contains the read shapes returned to API callers
package types

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/okian/valodds/internal/domain/model"
)

// BetScore is the result of scoring one predicted performance.
type BetScore struct {
	UserID string `json:"userId"`
	Rank   string `json:"rank,omitempty"`
	// PredictedScore is the score of the prediction before any rank adjustment.
	PredictedScore float64 `json:"predicted_score"`
	// AdjustedPredictedScore is set only when rank adjustment ran.
	AdjustedPredictedScore *float64 `json:"adjusted_predicted_score,omitempty"`
	PerformanceScore       float64  `json:"performance_score"`
	OddPercentage          float64  `json:"odd_percentage"`
}

// AveragePerformance is the per-metric mean over a player's history.
type AveragePerformance struct {
	UserID             string                   `json:"userId"`
	TotalMatches       int                      `json:"total_matches"`
	AveragePerformance map[model.Metric]float64 `json:"average_performance"`
}

// Round2 rounds x half away from zero to two decimal places. NaN and the
// infinities are returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Rounded returns a copy of b with every number rounded to two decimals.
func (b BetScore) Rounded() BetScore {
	out := b
	out.PredictedScore = Round2(b.PredictedScore)
	out.PerformanceScore = Round2(b.PerformanceScore)
	out.OddPercentage = Round2(b.OddPercentage)
	if b.AdjustedPredictedScore != nil {
		v := Round2(*b.AdjustedPredictedScore)
		out.AdjustedPredictedScore = &v
	}
	return out
}

// Rounded returns a copy of a with every average rounded to two decimals.
func (a AveragePerformance) Rounded() AveragePerformance {
	out := a
	out.AveragePerformance = make(map[model.Metric]float64, len(a.AveragePerformance))
	for m, v := range a.AveragePerformance {
		out.AveragePerformance[m] = Round2(v)
	}
	return out
}
