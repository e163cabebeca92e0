package repository

import (
	"context"
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/rank"
)

//go:embed baselines.yaml
var defaultBaselines []byte

type baselineFile struct {
	Ranks map[string]map[string]float64 `yaml:"ranks"`
}

// BaselineTable is a read-only rank to metric-average table. Rows are keyed
// by canonical label ("gold 2") or by bare rank ("gold").
type BaselineTable struct {
	rows map[string]model.Values
}

// DefaultBaselines returns the table shipped with the binary.
func DefaultBaselines() *BaselineTable {
	t, err := ParseBaselines(defaultBaselines)
	if err != nil {
		panic(errors.Wrap(err, "embedded rank baselines"))
	}
	return t
}

// LoadBaselines reads a table from path. An empty path means the default table.
func LoadBaselines(path string) (*BaselineTable, error) {
	if path == "" {
		return DefaultBaselines(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rank baselines: %s", path)
	}
	t, err := ParseBaselines(b)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse rank baselines: %s", path)
	}
	return t, nil
}

// ParseBaselines decodes a YAML table. Unknown rank labels and metric names are rejected.
func ParseBaselines(b []byte) (*BaselineTable, error) {
	var f baselineFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrap(err, "failed to decode yaml")
	}
	if len(f.Ranks) == 0 {
		return nil, errors.Wrap(ErrInvalidTable, "no ranks defined")
	}

	t := &BaselineTable{rows: make(map[string]model.Values, len(f.Ranks))}
	for label, metrics := range f.Ranks {
		r := rank.Parse(label)
		if !r.IsKnown() {
			return nil, errors.Wrapf(ErrInvalidTable, "unknown rank %q", label)
		}
		key := r.String()
		if strings.EqualFold(strings.TrimSpace(label), r.Base) {
			key = r.Key()
		}
		if _, dup := t.rows[key]; dup {
			return nil, errors.Wrapf(ErrInvalidTable, "duplicate rank %q", label)
		}

		values := make(model.Values, len(metrics))
		for name, v := range metrics {
			m := model.Metric(name)
			if !m.IsKnown() {
				return nil, errors.Wrapf(ErrInvalidTable, "rank %q: unknown metric %q", label, name)
			}
			values[m] = v
		}
		t.rows[key] = values
	}
	return t, nil
}

// RankBaseline implements BaselineProvider. The canonical label is tried
// first, then the bare rank.
func (t *BaselineTable) RankBaseline(_ context.Context, label string) (model.RankBaseline, error) {
	r := rank.Parse(label)
	if !r.IsKnown() {
		return model.RankBaseline{}, errors.Wrapf(ErrNotFound, "rank %q", label)
	}
	for _, key := range []string{r.String(), r.Key()} {
		if v, ok := t.rows[key]; ok {
			return model.RankBaseline{Rank: r.String(), Values: v.Clone()}, nil
		}
	}
	return model.RankBaseline{}, errors.Wrapf(ErrNotFound, "no baseline for rank %q (table has %s)",
		r.String(), strings.Join(t.Ranks(), ", "))
}

// Ranks lists the row keys in sorted order.
func (t *BaselineTable) Ranks() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
