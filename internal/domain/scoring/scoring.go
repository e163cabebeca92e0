// Package scoring turns per-match statistics into comparable scores and
// derives odds for a predicted performance against a player's own history.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/valodds/internal/domain/model"
)

// Mode names a scoring strategy.
type Mode string

// Supported scoring modes.
const (
	ModePlain         Mode = "plain"
	ModeStakeWeighted Mode = "stake_weighted"
)

// minStakeWeight keeps a metric from being zeroed out by a large stake.
const minStakeWeight = 0.1

// Scorer reduces a metric record to a single scalar. Metrics absent from
// either the record or the constants are skipped.
type Scorer interface {
	Score(record model.Values, c Constants, metrics []model.Metric) float64
}

// PlainScorer sums value * constant.
type PlainScorer struct{}

// Score implements Scorer.
func (PlainScorer) Score(record model.Values, c Constants, metrics []model.Metric) float64 {
	var sum float64
	for _, m := range metrics {
		v, ok := record[m]
		if !ok {
			continue
		}
		k, ok := c[m]
		if !ok {
			continue
		}
		sum += v * k
	}
	return sum
}

// StakeScorer sums value * constant * StakeWeight(stake, value).
type StakeScorer struct {
	Stake int
}

// Score implements Scorer.
func (s StakeScorer) Score(record model.Values, c Constants, metrics []model.Metric) float64 {
	var sum float64
	for _, m := range metrics {
		v, ok := record[m]
		if !ok {
			continue
		}
		k, ok := c[m]
		if !ok {
			continue
		}
		sum += v * k * StakeWeight(s.Stake, v)
	}
	return sum
}

// StakeWeight returns max(0.1, 1 - stake/(value+1)).
func StakeWeight(stake int, value float64) float64 {
	return math.Max(minStakeWeight, 1-float64(stake)/(value+1))
}

// ScorerFor returns the scorer for mode. The stake only matters for the
// stake-weighted mode.
func ScorerFor(mode Mode, stake int) Scorer {
	if mode == ModeStakeWeighted {
		return StakeScorer{Stake: stake}
	}
	return PlainScorer{}
}

// ParseMode resolves a configured mode name. Empty means plain.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModePlain:
		return ModePlain, nil
	case ModeStakeWeighted:
		return ModeStakeWeighted, nil
	default:
		return ModePlain, fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
}

// BaselineScore is the mean per-match score over history, or 0 for no matches.
func BaselineScore(history []model.MatchRecord, c Constants, metrics []model.Metric, s Scorer) float64 {
	if len(history) == 0 {
		return 0
	}
	var total float64
	for _, rec := range history {
		total += s.Score(rec.Values, c, metrics)
	}
	return total / float64(len(history))
}

// Odds returns final/baseline as a percentage, or 0 when baseline is 0.
func Odds(final, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (final / baseline) * 100
}
