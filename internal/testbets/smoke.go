package testbets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/valodds/pkg/logger"
)

// ErrSmokeFailed is returned when a smoke run saw failed requests or broken invariants.
var ErrSmokeFailed = errors.New("smoke run failed")

// outcome of a single bet request.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeNotFound
	outcomeFailed
	outcomeViolation
)

// Smoke checks service health, then sends cfg.Requests bet requests with at
// most cfg.Workers in flight and verifies every response.
func Smoke(ctx context.Context, cfg SmokeConfig) (*Stats, error) {
	if cfg.Players <= 0 || cfg.Requests <= 0 || cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w: players, requests and workers must be positive", ErrSmokeFailed)
	}

	start := time.Now()
	logger.Get().Info(ctx, "starting valodds smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	client := newHTTPClient(cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Send bets concurrently
	var (
		counts   [outcomeViolation + 1]atomic.Int64
		sent     atomic.Int64
		mu       sync.Mutex
		issues   []string
		url      = cfg.BaseURL + "/calculate-performance"
		progress = time.Now()
	)
	report := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		if len(issues) < maxReportedIssues {
			issues = append(issues, msg)
		}
		if cfg.Verbose {
			logger.Get().Warn(ctx, "smoke issue", logger.String("detail", msg))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Requests; i++ {
		req := nextRequest(cfg, i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, detail := sendBet(gctx, client, url, req)
			counts[o].Add(1)
			if detail != "" {
				report(detail)
			}

			n := sent.Add(1)
			mu.Lock()
			if time.Since(progress) >= progressInterval {
				progress = time.Now()
				logger.Get().Info(gctx, "progress", logger.Int("sent", int(n)), logger.Int("total", cfg.Requests))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{
		Requests:   int(sent.Load()),
		Succeeded:  int(counts[outcomeOK].Load()),
		NotFound:   int(counts[outcomeNotFound].Load()),
		Failed:     int(counts[outcomeFailed].Load()),
		Violations: int(counts[outcomeViolation].Load()),
		Duration:   time.Since(start),
	}
	displayFinalStats(ctx, stats)

	if stats.Failed > 0 || stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d failed, %d violations; first issues: %v",
			ErrSmokeFailed, stats.Failed, stats.Violations, issues)
	}
	logger.Get().Info(ctx, "smoke run completed successfully")
	return stats, nil
}

// nextRequest builds the i-th request. Unknown players are spread evenly
// according to MissRate.
func nextRequest(cfg SmokeConfig, i int) betRequest {
	req := betRequest{
		UserID:               PlayerID(getRandomInt(cfg.Players)),
		PredictedPerformance: RandomPrediction(),
		UseRankAdjustment:    getRandomFloat() < cfg.RankRate,
	}
	if cfg.MissRate > 0 && getRandomFloat() < cfg.MissRate {
		req.UserID = UnknownPlayerID(i)
	}
	return req
}

// sendBet submits one request and classifies the response.
func sendBet(ctx context.Context, client *HTTPClient, url string, req betRequest) (outcome, string) {
	status, body, err := client.Post(ctx, url, req)
	if err != nil {
		return outcomeFailed, fmt.Sprintf("%s: %v", req.UserID, err)
	}

	known := !isUnknownPlayer(req.UserID)
	switch {
	case status == StatusOK && known:
		if err := verifyScore(req, body); err != nil {
			return outcomeViolation, err.Error()
		}
		return outcomeOK, ""
	case status == StatusNotFound && !known:
		return outcomeNotFound, ""
	case status == StatusOK || status == StatusNotFound:
		return outcomeViolation, fmt.Sprintf("%s: unexpected status %d", req.UserID, status)
	default:
		return outcomeFailed, fmt.Sprintf("%s: status %d: %s", req.UserID, status, body)
	}
}

func isUnknownPlayer(id string) bool {
	return strings.HasPrefix(id, unknownPrefix)
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	logger.Get().Info(ctx, "checking service health")

	status, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if status != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.Requests > 0 {
		successRate = float64(stats.Succeeded+stats.NotFound) / float64(stats.Requests) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("requests", stats.Requests),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("notFound", stats.NotFound),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
