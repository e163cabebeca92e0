// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/valodds/internal/adapters/repository"
	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/rank"
	"github.com/okian/valodds/internal/domain/scoring"
	"github.com/okian/valodds/internal/domain/types"
	"github.com/okian/valodds/pkg/logger"
	"github.com/okian/valodds/pkg/metrics"
)

// Service scores predicted performances against stored match history.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	engine *scoring.Engine

	// Configuration
	storeOpts      repository.Options
	injected       bool
	selection      scoring.Selection
	equalWeighting bool
	mode           scoring.Mode
	defaultStake   int
	rankAdjustment bool
	rankScale      rank.Scale

	// State
	started   bool
	startedAt time.Time

	computations atomic.Int64
	adjusted     atomic.Int64
	lookupMisses atomic.Int64
	failures     atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a ready store. Start will not open one and Stop will not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.injected = true
		}
	}
}

// WithStoreOptions sets how Start opens the store.
func WithStoreOptions(opts repository.Options) Option {
	return func(s *Service) {
		s.storeOpts = opts
	}
}

// WithSelection sets the metric selection strategy.
func WithSelection(sel scoring.Selection) Option {
	return func(s *Service) {
		if sel != "" {
			s.selection = sel
		}
	}
}

// WithEqualWeighting toggles spreading weight evenly across active metrics.
func WithEqualWeighting(enabled bool) Option {
	return func(s *Service) {
		s.equalWeighting = enabled
	}
}

// WithScoringMode sets the scoring strategy.
func WithScoringMode(mode scoring.Mode) Option {
	return func(s *Service) {
		if mode != "" {
			s.mode = mode
		}
	}
}

// WithDefaultStake sets the stake used when a request carries none.
func WithDefaultStake(stake int) Option {
	return func(s *Service) {
		if stake >= 0 {
			s.defaultStake = stake
		}
	}
}

// WithRankAdjustment sets whether requests are rank-adjusted by default.
func WithRankAdjustment(enabled bool) Option {
	return func(s *Service) {
		s.rankAdjustment = enabled
	}
}

// WithRankScale sets the tier scale used by rank adjustment.
func WithRankScale(scale rank.Scale) Option {
	return func(s *Service) {
		s.rankScale = scale
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeOpts:      repository.Options{Source: repository.SourceJSON, DataFile: "valorant_data.json"},
		selection:      scoring.SelectDynamic,
		equalWeighting: true,
		mode:           scoring.ModePlain,
		defaultStake:   model.DefaultStake,
		rankScale:      rank.Fine,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store (unless one was injected) and builds the scoring engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	selector, err := scoring.SelectorFor(string(s.selection))
	if err != nil {
		return err
	}
	if _, err := scoring.ParseMode(string(s.mode)); err != nil {
		return err
	}

	if !s.injected {
		store, err := repository.Open(ctx, s.storeOpts)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "store opened", logger.String("source", string(s.storeOpts.Source)))
	}

	s.engine = scoring.NewEngine(
		scoring.WithSelector(selector),
		scoring.WithEqualWeighting(s.equalWeighting),
		scoring.WithMode(s.mode),
		scoring.WithAdjuster(scoring.RankAdjuster{Scale: s.rankScale}),
	)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "scoring service started",
		logger.String("selection", string(s.selection)),
		logger.Bool("equalWeighting", s.equalWeighting),
		logger.String("mode", string(s.mode)),
		logger.Int("defaultStake", s.defaultStake),
		logger.Bool("rankAdjustment", s.rankAdjustment),
		logger.String("rankScale", s.rankScale.String()),
	)

	return nil
}

// Stop closes the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scoring service...")

	if !s.injected && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

func (s *Service) deps() (repository.Store, *scoring.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.engine, nil
}

// ComputeBetScore scores req.Predicted against the user's history and
// returns the odds. Numbers are rounded to two decimals on the way out.
func (s *Service) ComputeBetScore(ctx context.Context, req model.BetRequest) (types.BetScore, error) {
	start := time.Now()

	useRank := s.rankAdjustment
	if req.UseRankAdjustment != nil {
		useRank = *req.UseRankAdjustment
	}

	out, factor, err := s.computeBetScore(ctx, req, useRank)
	if err != nil {
		s.recordFailure(ctx, "compute bet score", req.UserID, useRank, err)
		return types.BetScore{}, err
	}

	s.computations.Add(1)
	if useRank {
		s.adjusted.Add(1)
		metrics.RecordAdjustmentFactor(factor)
	}
	metrics.RecordScoreComputation(string(s.mode), useRank, "ok")
	metrics.RecordOddsPercentage(out.OddPercentage)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.log().Debug(ctx, "bet score computed",
		logger.String("user_id", out.UserID),
		logger.Float64("predicted_score", out.PredictedScore),
		logger.Float64("performance_score", out.PerformanceScore),
		logger.Float64("odd_percentage", out.OddPercentage),
		logger.Bool("rank_adjusted", useRank),
		logger.Float64("factor", factor),
	)

	return out.Rounded(), nil
}

func (s *Service) computeBetScore(ctx context.Context, req model.BetRequest, useRank bool) (types.BetScore, float64, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return types.BetScore{}, 0, invalidRequest("userId is required")
	}
	stake := s.defaultStake
	if req.Stake != nil {
		if *req.Stake < 0 {
			return types.BetScore{}, 0, invalidRequest("stake must not be negative")
		}
		stake = *req.Stake
	}

	store, engine, err := s.deps()
	if err != nil {
		return types.BetScore{}, 0, err
	}

	history, err := s.history(ctx, store, req.UserID)
	if err != nil {
		return types.BetScore{}, 0, err
	}

	in := scoring.Input{
		History:   history,
		Predicted: req.Predicted.Values(),
		Stake:     stake,
	}

	var label string
	if useRank {
		rc, err := s.rankContext(ctx, store, req.UserID)
		if err != nil {
			return types.BetScore{}, 0, err
		}
		in.Rank = &rc
		label = rc.Label
		if r := rank.Parse(rc.Label); r.IsKnown() {
			label = r.String()
		}
	}

	ev, err := engine.Evaluate(in)
	if err != nil {
		return types.BetScore{}, 0, fmt.Errorf("evaluate: %w", err)
	}
	if !finite(ev.PredictedScore, ev.BaselineScore, ev.AdjustedScore, ev.Odds) {
		return types.BetScore{}, 0, invalidRequest("prediction overflows the score range")
	}

	out := types.BetScore{
		UserID:           req.UserID,
		Rank:             label,
		PredictedScore:   ev.PredictedScore,
		PerformanceScore: ev.BaselineScore,
		OddPercentage:    ev.Odds,
	}
	if ev.Adjusted {
		adjusted := ev.AdjustedScore
		out.AdjustedPredictedScore = &adjusted
	}
	return out, ev.Factor, nil
}

// history fetches the user's matches. An empty history is a lookup miss.
func (s *Service) history(ctx context.Context, store repository.HistoryReader, userID string) ([]model.MatchRecord, error) {
	history, err := store.MatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("match history for %s: %w", userID, err)
	}
	if len(history) == 0 {
		return nil, &LookupError{Kind: ErrUserHistoryNotFound, ID: userID}
	}
	metrics.RecordMatchHistorySize(len(history))
	return history, nil
}

// rankContext resolves the user's rank and its baseline. A label that does
// not parse as a rank skips the baseline lookup; the adjuster treats it as
// tier 0 and leaves the score unchanged.
func (s *Service) rankContext(ctx context.Context, store repository.Store, userID string) (scoring.RankContext, error) {
	label, err := store.UserRank(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return scoring.RankContext{}, &LookupError{Kind: ErrUserRankNotFound, ID: userID}
	}
	if err != nil {
		return scoring.RankContext{}, fmt.Errorf("rank for %s: %w", userID, err)
	}

	rc := scoring.RankContext{Label: label}
	if !rank.Parse(label).IsKnown() {
		s.log().Info(ctx, "unknown rank label, skipping adjustment",
			logger.String("user_id", userID),
			logger.String("rank", label),
		)
		return rc, nil
	}

	baseline, err := store.RankBaseline(ctx, label)
	if errors.Is(err, repository.ErrNotFound) {
		s.log().Info(ctx, "rank baseline missing", logger.Error(err))
		return scoring.RankContext{}, &LookupError{Kind: ErrRankBaselineNotFound, ID: label}
	}
	if err != nil {
		return scoring.RankContext{}, fmt.Errorf("baseline for %s: %w", label, err)
	}
	rc.Baseline = baseline.Values
	return rc, nil
}

// AveragePerformance returns the per-metric mean over the user's history.
// Each mean is taken over the matches that carry the metric; metrics no
// match carries are left out.
func (s *Service) AveragePerformance(ctx context.Context, userID string) (types.AveragePerformance, error) {
	if strings.TrimSpace(userID) == "" {
		return types.AveragePerformance{}, invalidRequest("userId is required")
	}

	store, _, err := s.deps()
	if err != nil {
		return types.AveragePerformance{}, err
	}

	history, err := s.history(ctx, store, userID)
	if err != nil {
		s.recordFailure(ctx, "average performance", userID, false, err)
		return types.AveragePerformance{}, err
	}

	sums := make(map[model.Metric]float64)
	counts := make(map[model.Metric]int)
	for _, rec := range history {
		for m, v := range rec.Values {
			sums[m] += v
			counts[m]++
		}
	}

	out := types.AveragePerformance{
		UserID:             userID,
		TotalMatches:       len(history),
		AveragePerformance: make(map[model.Metric]float64, len(sums)),
	}
	for m, sum := range sums {
		out.AveragePerformance[m] = sum / float64(counts[m])
	}
	return out.Rounded(), nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (s *Service) recordFailure(ctx context.Context, op, userID string, adjusted bool, err error) {
	var le *LookupError
	if errors.As(err, &le) {
		s.lookupMisses.Add(1)
		kind := lookupKind(err)
		metrics.RecordLookupMiss(kind)
		metrics.RecordScoreComputation(string(s.mode), adjusted, "not_found")
		s.log().Info(ctx, op+": lookup miss",
			logger.String("kind", kind),
			logger.String("id", le.ID),
		)
		return
	}

	outcome := "error"
	if errors.Is(err, ErrInvalidRequest) {
		outcome = "invalid"
	}
	s.failures.Add(1)
	metrics.RecordScoreComputation(string(s.mode), adjusted, outcome)
	s.log().Error(ctx, op+" failed",
		logger.String("user_id", userID),
		logger.Error(err),
	)
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Discard()
	}
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"source":         string(s.storeOpts.Source),
		"selection":      string(s.selection),
		"equalWeighting": s.equalWeighting,
		"scoringMode":    string(s.mode),
		"defaultStake":   s.defaultStake,
		"rankAdjustment": s.rankAdjustment,
		"rankScale":      s.rankScale.String(),
		"computations":   s.computations.Load(),
		"rankAdjusted":   s.adjusted.Load(),
		"lookupMisses":   s.lookupMisses.Load(),
		"failures":       s.failures.Load(),
	}
	if s.injected {
		stats["source"] = "injected"
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}

	return stats
}
