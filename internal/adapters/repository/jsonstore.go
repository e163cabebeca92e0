package repository

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/pkg/metrics"
)

const (
	backendJSON  = "json"
	dataFileMode = 0o600
)

// dataFile is the provider export: every match in one array plus an
// optional explicit rank per player.
type dataFile struct {
	MatchResults []model.MatchRecord `json:"matchResults"`
	UserRanks    map[string]string   `json:"userRanks,omitempty"`
}

// JSONStore serves reads from a provider JSON file. The file is read on
// every call so each request sees one consistent snapshot and edits are
// picked up without a restart.
type JSONStore struct {
	path      string
	baselines BaselineProvider
}

// NewJSONStore creates a store over path. A nil baselines means the default table.
func NewJSONStore(path string, baselines BaselineProvider) *JSONStore {
	if baselines == nil {
		baselines = DefaultBaselines()
	}
	return &JSONStore{path: path, baselines: baselines}
}

// load reads the file. A missing file is treated as no data.
func (s *JSONStore) load() (dataFile, error) {
	var f dataFile
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, errors.Wrapf(err, "failed to read data file: %s", s.path)
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, errors.Wrapf(err, "failed to decode data file: %s", s.path)
	}
	return f, nil
}

// MatchHistory implements HistoryReader.
func (s *JSONStore) MatchHistory(_ context.Context, userID string) ([]model.MatchRecord, error) {
	start := time.Now()
	defer observe(backendJSON, "history", start)

	f, err := s.load()
	if err != nil {
		metrics.RecordStoreError(backendJSON, "history")
		return nil, err
	}

	var out []model.MatchRecord
	for _, rec := range f.MatchResults {
		if rec.PlayerID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// UserRank implements RankReader. An explicit entry in userRanks wins;
// otherwise the rank reported with the player's most recent match is used.
func (s *JSONStore) UserRank(_ context.Context, userID string) (string, error) {
	start := time.Now()
	defer observe(backendJSON, "rank", start)

	f, err := s.load()
	if err != nil {
		metrics.RecordStoreError(backendJSON, "rank")
		return "", err
	}

	if label := strings.TrimSpace(f.UserRanks[userID]); label != "" {
		return label, nil
	}

	var (
		latest model.MatchRecord
		found  bool
	)
	for _, rec := range f.MatchResults {
		if rec.PlayerID != userID || strings.TrimSpace(rec.Rank) == "" {
			continue
		}
		// Later entries win ties so file order acts as play order when timestamps are absent.
		if !found || !rec.PlayedAt.Before(latest.PlayedAt) {
			latest, found = rec, true
		}
	}
	if !found {
		return "", errors.Wrapf(ErrNotFound, "rank for user %q", userID)
	}
	return strings.TrimSpace(latest.Rank), nil
}

// RankBaseline implements BaselineProvider.
func (s *JSONStore) RankBaseline(ctx context.Context, label string) (model.RankBaseline, error) {
	return s.baselines.RankBaseline(ctx, label)
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }

// WriteJSONFile writes records and ranks to path in the provider shape
// NewJSONStore reads. An existing file is replaced.
func WriteJSONFile(path string, records []model.MatchRecord, ranks map[string]string) error {
	b, err := json.MarshalIndent(dataFile{MatchResults: records, UserRanks: ranks}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode data file")
	}
	if err := os.WriteFile(path, b, dataFileMode); err != nil {
		return errors.Wrapf(err, "failed to write data file: %s", path)
	}
	return nil
}

func observe(backend, operation string, start time.Time) {
	metrics.RecordStoreQueryLatency(backend, operation, float64(time.Since(start).Microseconds())/1000)
}
