package testbets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/valodds/internal/adapters/repository"
	"github.com/okian/valodds/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// ErrInvalidSeed is returned for seed configurations that cannot produce data.
var ErrInvalidSeed = errors.New("invalid seed config")

// Seed generates match history and writes it to cfg.Output.
func Seed(ctx context.Context, cfg SeedConfig) error {
	if cfg.Players <= 0 || cfg.MatchesPerPlayer <= 0 {
		return fmt.Errorf("%w: players and matches must be positive", ErrInvalidSeed)
	}
	if cfg.Output == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidSeed)
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	records, ranks := GenerateHistory(cfg, time.Now())
	logger.Get().Info(ctx, "generated match history",
		logger.Int("players", cfg.Players),
		logger.Int("matches", len(records)),
		logger.Int("explicitRanks", len(ranks)))

	switch cfg.Format {
	case "", FormatJSON:
		if err := repository.WriteJSONFile(cfg.Output, records, ranks); err != nil {
			return err
		}
	case FormatSQLite:
		store, err := repository.OpenSQL(ctx, repository.DriverSQLite, cfg.Output, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Get().Error(ctx, "failed to close database", logger.Error(err))
			}
		}()
		if err := store.Import(ctx, records, ranks); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidSeed, cfg.Format)
	}

	logger.Get().Info(ctx, "match history saved",
		logger.String("output", cfg.Output),
		logger.String("format", cfg.Format))
	return nil
}
