package scoring

import (
	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/rank"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSelector sets the metric selection strategy.
func WithSelector(s Selector) Option {
	return func(e *Engine) {
		if s != nil {
			e.selector = s
		}
	}
}

// WithEqualWeighting toggles spreading weight evenly across active metrics.
func WithEqualWeighting(enabled bool) Option {
	return func(e *Engine) {
		e.equalWeighting = enabled
	}
}

// WithMode sets the scoring strategy.
func WithMode(mode Mode) Option {
	return func(e *Engine) {
		if mode != "" {
			e.mode = mode
		}
	}
}

// WithAdjuster sets the strategy used when a rank context is supplied.
func WithAdjuster(a Adjuster) Option {
	return func(e *Engine) {
		if a != nil {
			e.adjuster = a
		}
	}
}

// Input is everything one evaluation needs.
type Input struct {
	History   []model.MatchRecord
	Predicted model.Values
	Stake     int
	// Rank enables rank adjustment when non-nil.
	Rank *RankContext
}

// Evaluation is the full-precision outcome of one evaluation.
type Evaluation struct {
	Metrics        []model.Metric
	Constants      Constants
	PredictedScore float64
	BaselineScore  float64
	// AdjustedScore and Factor are only meaningful when Adjusted is true.
	AdjustedScore float64
	Factor        float64
	Adjusted      bool
	FinalScore    float64
	Odds          float64
}

// Engine composes selection, normalization, scoring and adjustment. It
// holds no per-request state and is safe for concurrent use.
type Engine struct {
	selector       Selector
	equalWeighting bool
	mode           Mode
	adjuster       Adjuster
}

// NewEngine creates an engine. Defaults: dynamic selection, equal weighting,
// plain scoring, rank adjustment on the fine tier scale.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		selector:       DynamicSelector{},
		equalWeighting: true,
		mode:           ModePlain,
		adjuster:       RankAdjuster{Scale: rank.Fine},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the configured scoring mode.
func (e *Engine) Mode() Mode { return e.mode }

// Evaluate scores the prediction against the history and derives the odds.
func (e *Engine) Evaluate(in Input) (Evaluation, error) {
	if len(in.History) == 0 {
		return Evaluation{}, ErrEmptyHistory
	}

	metrics := e.selector.Select(in.Predicted)
	constants := Normalize(in.History, metrics, e.equalWeighting)
	scorer := ScorerFor(e.mode, in.Stake)

	ev := Evaluation{
		Metrics:        metrics,
		Constants:      constants,
		PredictedScore: scorer.Score(in.Predicted, constants, metrics),
		BaselineScore:  BaselineScore(in.History, constants, metrics, scorer),
		Factor:         1,
	}
	ev.FinalScore = ev.PredictedScore

	if in.Rank != nil {
		ev.Factor = e.adjuster.Factor(ev.PredictedScore, ev.BaselineScore, *in.Rank, metrics)
		ev.AdjustedScore = ev.PredictedScore * ev.Factor
		ev.Adjusted = true
		ev.FinalScore = ev.AdjustedScore
	}

	ev.Odds = Odds(ev.FinalScore, ev.BaselineScore)
	return ev, nil
}
