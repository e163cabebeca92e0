package testbets

import (
	"encoding/json"
	"fmt"
	"math"
)

// betRequest is the wire shape of POST /calculate-performance.
type betRequest struct {
	UserID               string `json:"userId"`
	PredictedPerformance any    `json:"predicted_performance"`
	UseRankAdjustment    bool   `json:"use_rank_adjustment"`
}

// betScore is the wire shape of a successful response.
type betScore struct {
	UserID                 string   `json:"userId"`
	Rank                   string   `json:"rank"`
	PredictedScore         *float64 `json:"predicted_score"`
	AdjustedPredictedScore *float64 `json:"adjusted_predicted_score"`
	PerformanceScore       *float64 `json:"performance_score"`
	OddPercentage          *float64 `json:"odd_percentage"`
}

// verifyScore checks a 200 response body against the request that produced it.
func verifyScore(req betRequest, body []byte) error {
	var res betScore
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("undecodable response: %w", err)
	}

	switch {
	case res.UserID != req.UserID:
		return fmt.Errorf("userId %q does not echo %q", res.UserID, req.UserID)
	case res.PredictedScore == nil || res.PerformanceScore == nil || res.OddPercentage == nil:
		return fmt.Errorf("%s: missing score fields", req.UserID)
	case *res.OddPercentage < 0 || math.IsNaN(*res.OddPercentage):
		return fmt.Errorf("%s: negative odds %v", req.UserID, *res.OddPercentage)
	case *res.PerformanceScore < 0:
		return fmt.Errorf("%s: negative performance score %v", req.UserID, *res.PerformanceScore)
	case req.UseRankAdjustment && res.AdjustedPredictedScore == nil:
		return fmt.Errorf("%s: rank adjustment requested but no adjusted score", req.UserID)
	case !req.UseRankAdjustment && res.AdjustedPredictedScore != nil:
		return fmt.Errorf("%s: adjusted score without rank adjustment", req.UserID)
	case req.UseRankAdjustment && res.Rank == "":
		return fmt.Errorf("%s: rank adjustment applied without a rank", req.UserID)
	}
	return nil
}
