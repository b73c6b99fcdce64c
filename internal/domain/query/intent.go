package query

import "fmt"

// Intent is the classifier output: everything in a Context except the embedding.
// The zero value is invalid; use NewIntent or FallbackIntent.
type Intent struct {
	raw      string
	strategy Strategy
	filters  Filters
	sort     *Sort
}

// NewIntent validates the strategy/sort invariant: sort is present iff strategy is Ranking.
func NewIntent(raw string, strategy Strategy, filters Filters, sort *Sort) (Intent, error) {
	if !strategy.IsValid() {
		return Intent{}, fmt.Errorf("unknown strategy %q", strategy)
	}
	if strategy.NeedsSort() && sort == nil {
		return Intent{}, fmt.Errorf("%s requires a sort clause", strategy)
	}
	if !strategy.NeedsSort() && sort != nil {
		return Intent{}, fmt.Errorf("%s does not accept a sort clause", strategy)
	}
	var s *Sort
	if sort != nil {
		cp := *sort
		s = &cp
	}
	return Intent{raw: raw, strategy: strategy, filters: filters, sort: s}, nil
}

// FallbackIntent is the fail-soft default: HYBRID, no filters, no sort.
func FallbackIntent(raw string) Intent {
	return Intent{raw: raw, strategy: Hybrid}
}

// RawQuery returns the user's query text.
func (i Intent) RawQuery() string { return i.raw }

// Strategy returns the selected strategy.
func (i Intent) Strategy() Strategy { return i.strategy }

// Filters returns the equality constraints.
func (i Intent) Filters() Filters { return i.filters }

// Sort returns the sort clause; nil unless strategy is Ranking.
func (i Intent) Sort() *Sort {
	if i.sort == nil {
		return nil
	}
	cp := *i.sort
	return &cp
}
