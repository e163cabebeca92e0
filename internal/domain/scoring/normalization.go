package scoring

import "github.com/okian/valodds/internal/domain/model"

// Constants maps a metric to its normalization factor.
type Constants map[model.Metric]float64

// Normalize derives per-metric constants from one player's history: 1/max
// of the metric across all matches, or 0 when no match carries the metric or
// the maximum is not positive. Constants are never negative. With equalWeighting each constant is further scaled by
// 1/len(metrics) so the per-metric maximum contributions sum to 1.
func Normalize(history []model.MatchRecord, metrics []model.Metric, equalWeighting bool) Constants {
	c := make(Constants, len(metrics))
	if len(metrics) == 0 {
		return c
	}

	share := 1.0
	if equalWeighting {
		share = 1 / float64(len(metrics))
	}

	for _, m := range metrics {
		maxValue, seen := maxOf(history, m)
		// A negative maximum would flip the sign of the metric's contribution.
		if !seen || maxValue <= 0 {
			c[m] = 0
			continue
		}
		c[m] = (1 / maxValue) * share
	}
	return c
}

func maxOf(history []model.MatchRecord, m model.Metric) (float64, bool) {
	var (
		maxValue float64
		seen     bool
	)
	for _, rec := range history {
		v, ok := rec.Values[m]
		if !ok {
			continue
		}
		if !seen || v > maxValue {
			maxValue = v
			seen = true
		}
	}
	return maxValue, seen
}
