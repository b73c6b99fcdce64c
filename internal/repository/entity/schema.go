package entity

import (
	"fmt"

	"github.com/kailas-cloud/footrag/internal/db"
	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/search/filter"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

const (
	vectorPath  = "$.embedding"
	vectorAlias = "vector"
	jsonField   = "$"
)

// numericField is a sortable NUMERIC attribute indexed under alias.
type numericField struct {
	path  string
	alias string
	// inverted fields are stored as a year: "age DESC" sorts by year ASC.
	inverted bool
}

// schema maps allow-listed filters and sort fields to one table's document layout.
type schema struct {
	tags  map[string]string // filter attribute → JSONPath; the attribute is the index alias
	sorts map[query.SortField]numericField
}

var schemas = map[table.Name]schema{
	table.Players: {
		tags: map[string]string{
			query.AttrLeague:      "$.current_league",
			query.AttrNationality: "$.nationality",
		},
		sorts: map[query.SortField]numericField{
			query.SortGoals:       {path: "$.metadata.stats.goals", alias: "goals"},
			query.SortAssists:     {path: "$.metadata.stats.assists", alias: "assists"},
			query.SortAppearances: {path: "$.metadata.stats.appearances", alias: "appearances"},
			query.SortHeight:      {path: "$.metadata.identity.height_cm", alias: "height_cm"},
			query.SortAge:         {path: "$.birth_year", alias: "birth_year", inverted: true},
		},
	},
	table.Teams: {
		tags: map[string]string{
			query.AttrLeague:      "$.current_league",
			query.AttrNationality: "$.country",
		},
		sorts: map[query.SortField]numericField{
			query.SortGoals: {path: "$.metadata.season_stats.goals_for", alias: "goals_for"},
			query.SortAge:   {path: "$.founded_year", alias: "founded_year", inverted: true},
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

// expression converts query filters into TAG conditions on the index aliases.
func (s schema) expression(f query.Filters) (filter.Expression, error) {
	m := make(map[string]string, f.Len())
	for _, k := range f.Keys() {
		if _, ok := s.tags[k]; !ok {
			continue
		}
		v, _ := f.Get(k)
		m[k] = v
	}
	return filter.FromMap(m)
}

// sortBy resolves the index alias and storage direction for a sort.
func (s schema) sortBy(t table.Name, srt query.Sort) (alias string, descending bool, err error) {
	nf, ok := s.sorts[srt.Field()]
	if !ok {
		return "", false, fmt.Errorf("%s on %s: %w", srt.Field(), t, domain.ErrUnsupportedSort)
	}
	order := srt.Order()
	if nf.inverted {
		order = order.Reverse()
	}
	return nf.alias, order == query.Desc, nil
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// buildIndex creates the FT.CREATE definition for one table.
func buildIndex(prefix string, t table.Name, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}

	b := db.NewIndex(indexName(prefix, t)).Prefix(keyPrefix(prefix, t))

	for _, attr := range []string{query.AttrLeague, query.AttrNationality} {
		if path, ok := s.tags[attr]; ok {
			b.TagAs(path, attr)
		}
	}
	for _, f := range []query.SortField{
		query.SortGoals, query.SortAssists, query.SortAppearances, query.SortHeight, query.SortAge,
	} {
		if nf, ok := s.sorts[f]; ok {
			b.NumericAs(nf.path, nf.alias)
		}
	}

	return b.VectorHNSW(vectorPath, vectorAlias, db.VectorParams{
		Dim:         dim,
		Distance:    db.DistanceCosine,
		M:           hnsw.M,
		EFConstruct: hnsw.EFConstruct,
	}).Build()
}

func keyPrefix(prefix string, t table.Name) string {
	return prefix + string(t) + ":"
}

func indexName(prefix string, t table.Name) string {
	return prefix + string(t) + ":idx"
}
