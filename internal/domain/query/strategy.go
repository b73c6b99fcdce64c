// Package query holds the per-request retrieval plan: strategy, filters, sort and the
// query embedding.
package query

import "strings"

// Strategy is the retrieval mode selected per query.
type Strategy string

const (
	// FiltersOnly resolves the query with exact-match attributes only.
	FiltersOnly Strategy = "filters_only"
	// Semantic searches by a style or trait description.
	Semantic Strategy = "semantic"
	// Hybrid combines equality filters with vector similarity. Also the universal fallback.
	Hybrid Strategy = "hybrid"
	// Ranking orders entities by a sortable attribute ("most", "youngest").
	Ranking Strategy = "ranking"
)

// ParseStrategy normalizes a strategy label. Case and surrounding space are ignored;
// "FILTERS-ONLY" and "filters only" are accepted as well.
func ParseStrategy(s string) (Strategy, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch Strategy(norm) {
	case FiltersOnly, Semantic, Hybrid, Ranking:
		return Strategy(norm), true
	default:
		return "", false
	}
}

// NeedsEmbedding reports whether the strategy performs a vector search.
func (s Strategy) NeedsEmbedding() bool {
	return s == Semantic || s == Hybrid
}

// NeedsSort reports whether the strategy requires a sort clause.
func (s Strategy) NeedsSort() bool {
	return s == Ranking
}

// String returns the upper-case label used in responses and logs.
func (s Strategy) String() string {
	return strings.ToUpper(string(s))
}

// IsValid reports whether s is one of the four known strategies.
func (s Strategy) IsValid() bool {
	switch s {
	case FiltersOnly, Semantic, Hybrid, Ranking:
		return true
	default:
		return false
	}
}
