package db

import "github.com/kailas-cloud/footrag/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SortedQuery is the input for a filtered lookup, optionally ordered by a NUMERIC field.
type SortedQuery struct {
	IndexName    string
	Filters      filter.Expression
	SortBy       string // NUMERIC field alias, empty for index order
	Descending   bool
	RequireSort  bool // drop documents without a value for SortBy
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
