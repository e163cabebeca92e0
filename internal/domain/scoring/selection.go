package scoring

import (
	"fmt"
	"strings"

	"github.com/okian/valodds/internal/domain/model"
)

// Selection names a metric selection strategy.
type Selection string

// Supported selection strategies.
const (
	SelectDynamic Selection = "dynamic"
	SelectFixed   Selection = "fixed"
)

// Selector decides which metrics take part in scoring.
type Selector interface {
	Select(predicted model.Values) []model.Metric
}

// DynamicSelector selects only the metrics set in the prediction, in canonical order.
type DynamicSelector struct{}

// Select implements Selector.
func (DynamicSelector) Select(predicted model.Values) []model.Metric {
	out := make([]model.Metric, 0, len(predicted))
	for _, m := range model.AllMetrics() {
		if predicted.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// FixedSelector always selects the full canonical metric set.
type FixedSelector struct{}

// Select implements Selector.
func (FixedSelector) Select(model.Values) []model.Metric {
	return model.AllMetrics()
}

// SelectorFor resolves a configured selection name. Empty means dynamic.
func SelectorFor(name string) (Selector, error) {
	switch Selection(strings.ToLower(strings.TrimSpace(name))) {
	case "", SelectDynamic:
		return DynamicSelector{}, nil
	case SelectFixed:
		return FixedSelector{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSelection, name)
	}
}
