// Package model contains domain models passed between layers.
package model

// Metric names a numeric per-match statistic.
type Metric string

// Metrics tracked for every match, in canonical order.
const (
	KDA              Metric = "kda"
	Kills            Metric = "kills"
	Deaths           Metric = "deaths"
	Damage           Metric = "damage"
	KillsPerRound    Metric = "kills_per_round"
	Headshots        Metric = "headshots"
	HeadshotsPercent Metric = "headshots_percent"
	DamagePerRound   Metric = "damage_per_round"
)

var allMetrics = []Metric{
	KDA,
	Kills,
	Deaths,
	Damage,
	KillsPerRound,
	Headshots,
	HeadshotsPercent,
	DamagePerRound,
}

// AllMetrics returns the canonical metric set. The returned slice is a copy.
func AllMetrics() []Metric {
	out := make([]Metric, len(allMetrics))
	copy(out, allMetrics)
	return out
}

// IsKnown reports whether m is one of the canonical metrics.
func (m Metric) IsKnown() bool {
	for _, known := range allMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// Values maps a metric to its value. A missing key means the metric is unset.
type Values map[Metric]float64

// Has reports whether metric m is set.
func (v Values) Has(m Metric) bool {
	_, ok := v[m]
	return ok
}

// Clone returns an independent copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for m, x := range v {
		out[m] = x
	}
	return out
}
