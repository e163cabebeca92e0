// Package repository provides read access to match history, player ranks
// and per-rank metric baselines.
package repository

import (
	"context"

	"github.com/okian/valodds/internal/domain/model"
)

// HistoryReader returns a player's match history.
type HistoryReader interface {
	// MatchHistory returns the matches recorded for userID in play order.
	// An unknown user yields an empty slice, not an error.
	MatchHistory(ctx context.Context, userID string) ([]model.MatchRecord, error)
}

// RankReader returns a player's current rank label.
type RankReader interface {
	// UserRank returns ErrNotFound when no rank is known for userID.
	UserRank(ctx context.Context, userID string) (string, error)
}

// BaselineProvider returns the average metric values for a rank.
type BaselineProvider interface {
	// RankBaseline returns ErrNotFound when the label is unknown or has no row.
	RankBaseline(ctx context.Context, label string) (model.RankBaseline, error)
}

// Store bundles every read the scoring service needs.
type Store interface {
	HistoryReader
	RankReader
	BaselineProvider
	Close() error
}
