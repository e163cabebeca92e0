package scoring

import (
	"math"

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/rank"
)

// Adjustment tuning.
const (
	minAdjustmentFactor = 0.5
	maxAdjustmentFactor = 1.5
	overPredictionRate  = 0.2
	underPredictionRate = 0.1
	tierScalingDivisor  = 10
)

// RankContext carries the player's rank label and the metric averages for that rank.
type RankContext struct {
	Label    string
	Baseline model.Values
}

// Adjuster produces the multiplicative factor applied to a predicted score.
type Adjuster interface {
	Factor(predicted, baseline float64, rc RankContext, metrics []model.Metric) float64
}

// NoAdjustment leaves predicted scores unchanged.
type NoAdjustment struct{}

// Factor implements Adjuster.
func (NoAdjustment) Factor(float64, float64, RankContext, []model.Metric) float64 { return 1 }

// RankAdjuster pulls a prediction toward the player's own baseline. Upward
// deviations are discounted at twice the rate downward ones are boosted, and
// both grow with rank tier.
//
// The factor is updated once per metric present in both the active set and
// the rank baseline, and clamped to [0.5, 1.5] after every update. With
// several metrics the update compounds, so the result depends on how many
// metrics overlap with the baseline.
type RankAdjuster struct {
	Scale rank.Scale
}

// Factor implements Adjuster. Unknown ranks and a non-positive baseline yield 1.
func (a RankAdjuster) Factor(predicted, baseline float64, rc RankContext, metrics []model.Metric) float64 {
	tier := rank.TierOf(rc.Label, a.Scale)
	if tier == 0 {
		return 1
	}

	factor := 1.0
	scaling := 1 + float64(tier)/tierScalingDivisor
	for _, m := range metrics {
		if !rc.Baseline.Has(m) || baseline <= 0 {
			continue
		}
		deviation := predicted/baseline - 1
		if deviation > 0 {
			factor *= 1 - deviation*overPredictionRate*scaling
		} else {
			factor *= 1 + math.Abs(deviation)*underPredictionRate*scaling
		}
		factor = clamp(factor, minAdjustmentFactor, maxAdjustmentFactor)
	}
	return factor
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
