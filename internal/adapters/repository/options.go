package repository

import (
	"context"

	"github.com/pkg/errors"
)

// Source names a store backend.
type Source string

// Supported store backends.
const (
	SourceJSON     Source = "json"
	SourceSQLite   Source = "sqlite"
	SourcePostgres Source = "postgres"
)

// Options selects and configures the store returned by Open.
type Options struct {
	Source       Source
	DataFile     string
	SQLitePath   string
	DatabaseURL  string
	BaselineFile string
}

// Open returns the store named by opts.Source. Baselines are loaded from
// opts.BaselineFile, or the embedded table when it is empty.
func Open(ctx context.Context, opts Options) (Store, error) {
	baselines, err := LoadBaselines(opts.BaselineFile)
	if err != nil {
		return nil, err
	}

	switch opts.Source {
	case "", SourceJSON:
		if opts.DataFile == "" {
			return nil, errors.Wrap(ErrInvalidSource, "json: data file not specified")
		}
		return NewJSONStore(opts.DataFile, baselines), nil
	case SourceSQLite:
		return OpenSQL(ctx, DriverSQLite, opts.SQLitePath, baselines)
	case SourcePostgres:
		return OpenSQL(ctx, DriverPostgres, opts.DatabaseURL, baselines)
	default:
		return nil, errors.Wrapf(ErrInvalidSource, "unknown source %q", opts.Source)
	}
}
