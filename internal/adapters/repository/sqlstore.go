package repository

import (
	"context"
	"database/sql"
	"embed"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/pkg/metrics"
)

// Supported database/sql drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed sql/*
var sqlFiles embed.FS

// SQLStore serves reads from a sqlite or postgres database.
type SQLStore struct {
	db        *sql.DB
	driver    string
	baselines BaselineProvider
}

// OpenSQL connects to dsn, verifies the connection and applies the schema.
// A nil baselines means the default table.
func OpenSQL(ctx context.Context, driver, dsn string, baselines BaselineProvider) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.Wrapf(ErrInvalidSource, "unsupported driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.Wrapf(ErrInvalidSource, "%s: empty dsn", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s database", driver)
	}
	if driver == DriverSQLite {
		// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY on import.
		db.SetMaxOpenConns(1)
	}

	if baselines == nil {
		baselines = DefaultBaselines()
	}
	s := &SQLStore{db: db, driver: driver, baselines: baselines}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func (s *SQLStore) Migrate(ctx context.Context) error {
	b, err := sqlFiles.ReadFile("sql/ddl.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
		return errors.Wrapf(err, "failed to create %s schema", s.driver)
	}
	return nil
}

func metricColumns() string {
	all := model.AllMetrics()
	cols := make([]string, len(all))
	for i, m := range all {
		cols[i] = string(m)
	}
	return strings.Join(cols, ", ")
}

// MatchHistory implements HistoryReader.
func (s *SQLStore) MatchHistory(ctx context.Context, userID string) ([]model.MatchRecord, error) {
	start := time.Now()
	defer observe(s.driver, "history", start)

	q := s.rebind(`SELECT match_id, name, rank_label, played_at, ` + metricColumns() + `
		FROM match_results WHERE name = ? ORDER BY played_at, match_id`)
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		metrics.RecordStoreError(s.driver, "history")
		return nil, errors.Wrapf(err, "failed to query history for %q", userID)
	}
	defer rows.Close()

	all := model.AllMetrics()
	var out []model.MatchRecord
	for rows.Next() {
		var (
			rec      model.MatchRecord
			rankLbl  sql.NullString
			playedAt int64
			vals     = make([]sql.NullFloat64, len(all))
		)
		dest := []any{&rec.MatchID, &rec.PlayerID, &rankLbl, &playedAt}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			metrics.RecordStoreError(s.driver, "history")
			return nil, errors.Wrap(err, "failed to scan match row")
		}

		rec.Rank = rankLbl.String
		if playedAt != 0 {
			rec.PlayedAt = time.UnixMilli(playedAt).UTC()
		}
		rec.Values = make(model.Values, len(all))
		for i, m := range all {
			if vals[i].Valid {
				rec.Values[m] = vals[i].Float64
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError(s.driver, "history")
		return nil, errors.Wrap(err, "failed to iterate match rows")
	}
	return out, nil
}

// UserRank implements RankReader. An explicit user_ranks row wins; otherwise
// the rank recorded with the player's most recent match is used.
func (s *SQLStore) UserRank(ctx context.Context, userID string) (string, error) {
	start := time.Now()
	defer observe(s.driver, "rank", start)

	var label string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT rank_label FROM user_ranks WHERE name = ?`), userID).Scan(&label)
	if err == nil && strings.TrimSpace(label) != "" {
		return strings.TrimSpace(label), nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreError(s.driver, "rank")
		return "", errors.Wrapf(err, "failed to query rank for %q", userID)
	}

	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT rank_label FROM match_results
		WHERE name = ? AND rank_label IS NOT NULL AND rank_label <> ''
		ORDER BY played_at DESC, match_id DESC LIMIT 1`), userID).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrapf(ErrNotFound, "rank for user %q", userID)
	}
	if err != nil {
		metrics.RecordStoreError(s.driver, "rank")
		return "", errors.Wrapf(err, "failed to query match rank for %q", userID)
	}
	return strings.TrimSpace(label), nil
}

// RankBaseline implements BaselineProvider.
func (s *SQLStore) RankBaseline(ctx context.Context, label string) (model.RankBaseline, error) {
	return s.baselines.RankBaseline(ctx, label)
}

// Import writes records and explicit ranks in one transaction. Records
// without a match id get a generated one; existing match ids are left as they are.
func (s *SQLStore) Import(ctx context.Context, records []model.MatchRecord, ranks map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin import")
	}
	defer func() { _ = tx.Rollback() }()

	all := model.AllMetrics()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 4+len(all)), ", ")
	insertMatch, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO match_results
		(match_id, name, rank_label, played_at, `+metricColumns()+`)
		VALUES (`+placeholders+`) ON CONFLICT (match_id) DO NOTHING`))
	if err != nil {
		return errors.Wrap(err, "failed to prepare match insert")
	}
	defer insertMatch.Close()

	for _, rec := range records {
		id := rec.MatchID
		if id == "" {
			id = uuid.NewString()
		}
		var playedAt int64
		if !rec.PlayedAt.IsZero() {
			playedAt = rec.PlayedAt.UnixMilli()
		}
		args := []any{id, rec.PlayerID, sql.NullString{String: rec.Rank, Valid: rec.Rank != ""}, playedAt}
		for _, m := range all {
			v, ok := rec.Values[m]
			args = append(args, sql.NullFloat64{Float64: v, Valid: ok})
		}
		if _, err := insertMatch.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "failed to insert match %s", id)
		}
	}

	for name, label := range ranks {
		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO user_ranks (name, rank_label) VALUES (?, ?)
			ON CONFLICT (name) DO UPDATE SET rank_label = excluded.rank_label`), name, label)
		if err != nil {
			return errors.Wrapf(err, "failed to upsert rank for %s", name)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit import")
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(q) + 8)
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
