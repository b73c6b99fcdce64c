package query

import "github.com/kailas-cloud/footrag/internal/domain/table"

// Decomposition holds one table-focused sub-question per table for a query routed to both.
type Decomposition struct {
	Players string
	Teams   string
}

// Verbatim is the no-decomposition fallback: the original query for both tables.
func Verbatim(raw string) Decomposition {
	return Decomposition{Players: raw, Teams: raw}
}

// For returns the sub-question for t.
func (d Decomposition) For(t table.Name) string {
	if t == table.Teams {
		return d.Teams
	}
	return d.Players
}
