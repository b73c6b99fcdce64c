package pgentity

import (
	"fmt"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

// sortPath is a numeric attribute addressed as a JSON path into the row.
type sortPath struct {
	path     []string
	inverted bool // stored as a year
}

// expr renders the path as a numeric SQL expression.
func (p sortPath) expr() string {
	if len(p.path) == 1 {
		return p.path[0]
	}
	s := p.path[0] + " #>> '{"
	for i, seg := range p.path[1:] {
		if i > 0 {
			s += ","
		}
		s += seg
	}
	return "(" + s + "}')::numeric"
}

type schema struct {
	relation string
	idColumn string
	columns  map[string]string // filter attribute → column
	sorts    map[query.SortField]sortPath
}

var schemas = map[table.Name]schema{
	table.Players: {
		relation: "players",
		idColumn: "player_id",
		columns: map[string]string{
			query.AttrLeague:      "current_league",
			query.AttrNationality: "nationality",
		},
		sorts: map[query.SortField]sortPath{
			query.SortGoals:       {path: []string{"metadata", "stats", "goals"}},
			query.SortAssists:     {path: []string{"metadata", "stats", "assists"}},
			query.SortAppearances: {path: []string{"metadata", "stats", "appearances"}},
			query.SortHeight:      {path: []string{"metadata", "identity", "height_cm"}},
			query.SortAge:         {path: []string{"birth_year"}, inverted: true},
		},
	},
	table.Teams: {
		relation: "teams",
		idColumn: "team_id",
		columns: map[string]string{
			query.AttrLeague:      "current_league",
			query.AttrNationality: "country",
		},
		sorts: map[query.SortField]sortPath{
			query.SortGoals: {path: []string{"metadata", "season_stats", "goals_for"}},
			query.SortAge:   {path: []string{"founded_year"}, inverted: true},
		},
	},
}

func schemaFor(t table.Name) (schema, error) {
	s, ok := schemas[t]
	if !ok {
		return schema{}, fmt.Errorf("unknown table %q", t)
	}
	return s, nil
}

// columnFilters maps query filters to column → value pairs.
func (s schema) columnFilters(f query.Filters) map[string]string {
	out := make(map[string]string, f.Len())
	for _, k := range f.Keys() {
		col, ok := s.columns[k]
		if !ok {
			continue
		}
		v, _ := f.Get(k)
		out[col] = v
	}
	return out
}

func (s schema) sortBy(t table.Name, srt query.Sort) (sortPath, bool, error) {
	p, ok := s.sorts[srt.Field()]
	if !ok {
		return sortPath{}, false, fmt.Errorf("%s on %s: %w", srt.Field(), t, domain.ErrUnsupportedSort)
	}
	order := srt.Order()
	if p.inverted {
		order = order.Reverse()
	}
	return p, order == query.Desc, nil
}
