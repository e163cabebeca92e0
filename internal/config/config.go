// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config holding every default.
//   - Load layers a YAML file and VALODDS_* env vars over those defaults.
//   - Validation failures wrap ErrInvalidConfig; read failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/valodds/internal/adapters/repository"
	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/rank"
	"github.com/okian/valodds/internal/domain/scoring"
	"github.com/okian/valodds/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataSource picks the store backend: json, sqlite or postgres.
	DataSource string `koanf:"data_source"`

	// DataFile is the provider JSON export read by the json backend.
	DataFile string `koanf:"data_file"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// DatabaseURL is the connection string for the postgres backend.
	DatabaseURL string `koanf:"database_url"`

	// RankBaselineFile overrides the embedded rank baseline table.
	RankBaselineFile string `koanf:"rank_baseline_file"`

	// MetricSelection is dynamic (only predicted metrics) or fixed (all metrics).
	MetricSelection string `koanf:"metric_selection"`

	// EqualWeighting scales each normalization constant by 1/|metrics|.
	EqualWeighting bool `koanf:"equal_weighting"`

	// ScoringMode is plain or stake_weighted.
	ScoringMode string `koanf:"scoring_mode"`

	// DefaultStake applies when a request carries no stake.
	DefaultStake int `koanf:"default_stake"`

	// RankAdjustment is the default for requests that do not ask either way.
	RankAdjustment bool `koanf:"rank_adjustment"`

	// RankScale is fine (25 tiers) or coarse (9 tiers).
	RankScale string `koanf:"rank_scale"`

	// CORSAllowedOrigins lists origins allowed to call the API. Empty allows any origin.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       logger.FormatText,
		Addr:            ":9080",
		DataSource:      string(repository.SourceJSON),
		DataFile:        "valorant_data.json",
		SQLitePath:      "valodds.db",
		MetricSelection: string(scoring.SelectDynamic),
		EqualWeighting:  true,
		ScoringMode:     string(scoring.ModePlain),
		DefaultStake:    model.DefaultStake,
		RankAdjustment:  false,
		RankScale:       rank.Fine.String(),
		MaxBodyBytes:    1 << 20,
	}
}

// Validate checks every field that has a closed set of values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}

	switch strings.ToLower(c.LogFormat) {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}

	switch c.Source() {
	case repository.SourceJSON:
		if c.DataFile == "" {
			return invalid("data_file must not be empty for the json source")
		}
	case repository.SourceSQLite:
		if c.SQLitePath == "" {
			return invalid("sqlite_path must not be empty for the sqlite source")
		}
	case repository.SourcePostgres:
		if c.DatabaseURL == "" {
			return invalid("database_url must not be empty for the postgres source")
		}
	default:
		return invalid("data_source must be json, sqlite or postgres, got %q", c.DataSource)
	}

	if _, err := scoring.SelectorFor(c.MetricSelection); err != nil {
		return invalid("metric_selection: %v", err)
	}
	if _, err := scoring.ParseMode(c.ScoringMode); err != nil {
		return invalid("scoring_mode: %v", err)
	}
	if _, err := rank.ScaleFor(c.RankScale); err != nil {
		return invalid("rank_scale: %v", err)
	}
	if c.DefaultStake < 0 {
		return invalid("default_stake must not be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return invalid("max_body_bytes must be positive")
	}
	return nil
}

// StoreOptions returns the repository options described by c.
func (c *Config) StoreOptions() repository.Options {
	return repository.Options{
		Source:       c.Source(),
		DataFile:     c.DataFile,
		SQLitePath:   c.SQLitePath,
		DatabaseURL:  c.DatabaseURL,
		BaselineFile: c.RankBaselineFile,
	}
}

// Source returns the store backend with case and surrounding space ignored.
func (c *Config) Source() repository.Source {
	return repository.Source(strings.ToLower(strings.TrimSpace(c.DataSource)))
}

// Scale returns the parsed rank scale. Call after Validate.
func (c *Config) Scale() rank.Scale {
	s, _ := rank.ScaleFor(c.RankScale)
	return s
}

// Mode returns the parsed scoring mode. Call after Validate.
func (c *Config) Mode() scoring.Mode {
	m, _ := scoring.ParseMode(c.ScoringMode)
	return m
}

// Selection returns the normalized metric selection name.
func (c *Config) Selection() scoring.Selection {
	s := scoring.Selection(strings.ToLower(strings.TrimSpace(c.MetricSelection)))
	if s == "" {
		return scoring.SelectDynamic
	}
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
