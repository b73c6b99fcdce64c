package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/footrag/internal/db"
	"github.com/kailas-cloud/footrag/internal/domain"
	domentity "github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

func mustSort(t *testing.T, field, order string) query.Sort {
	t.Helper()
	s, err := query.NewSort(field, order)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	return s
}

// --- SearchBySimilarity ---

func TestSearchBySimilarity_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "footrag:players:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.K != 5 {
			t.Errorf("unexpected K: %d", q.K)
		}
		conds := q.Filters.Must()
		if len(conds) != 1 || conds[0].Key() != "nationality" || conds[0].Match() != "Brazil" {
			t.Errorf("unexpected filters: %+v", conds)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:   "footrag:players:p-10",
				Score: 0.82,
				Fields: map[string]string{
					"$": `{"name":"Vinicius","nationality":"Brazil","embedding":[0.1],"metadata":{"stats":{"goals":15}}}`,
				},
			}},
		}, nil
	}

	filters := query.FiltersFromStrings(map[string]string{"nationality": "Brazil"})
	docs, err := repo.SearchBySimilarity(context.Background(), table.Players, []float32{0.1}, filters, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	d := docs[0]
	if d.ID() != "p-10" || d.Table() != table.Players {
		t.Errorf("unexpected provenance: %s/%s", d.Table(), d.ID())
	}
	if d.Score() == nil || *d.Score() != 0.82 {
		t.Errorf("score = %v, want 0.82", d.Score())
	}
	if _, ok := d.Attributes()["embedding"]; ok {
		t.Error("embedding must be dropped")
	}
	if _, ok := d.Metadata()["stats"]; !ok {
		t.Error("metadata not split out")
	}
}

func TestSearchBySimilarity_TeamsNationalityMapsToCountry(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "footrag:teams:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		// alias stays "nationality"; the index maps it to $.country
		if c := q.Filters.Must(); len(c) != 1 || c[0].Key() != "nationality" {
			t.Errorf("unexpected filters: %+v", c)
		}
		return &db.SearchResult{}, nil
	}

	filters := query.FiltersFromStrings(map[string]string{"nationality": "Spain"})
	docs, err := repo.SearchBySimilarity(context.Background(), table.Teams, []float32{0.1}, filters, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", docs)
	}
}

func TestSearchBySimilarity_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("connection refused")
	}

	_, err := repo.SearchBySimilarity(context.Background(), table.Players, []float32{0.1}, query.Filters{}, 5)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchBySimilarity_UnknownTable(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.SearchBySimilarity(context.Background(), "coaches", []float32{0.1}, query.Filters{}, 5); err == nil {
		t.Fatal("expected error")
	}
}

// --- SearchByFilters ---

func TestSearchByFilters_NoSort(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchSortedFn = func(_ context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
		if q.SortBy != "" || q.RequireSort {
			t.Errorf("unexpected sort: %+v", q)
		}
		if q.Limit != 4 {
			t.Errorf("limit = %d, want 4", q.Limit)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:    "footrag:players:p-1",
				Fields: map[string]string{"$": `[{"name":"Pedri","current_league":"La Liga"}]`},
			}},
		}, nil
	}

	filters := query.FiltersFromStrings(map[string]string{"league": "La Liga"})
	docs, err := repo.SearchByFilters(context.Background(), table.Players, filters, 4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].Attributes()["name"] != "Pedri" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if docs[0].Score() != nil {
		t.Error("filtered lookups carry no score")
	}
}

func TestSearchByFilters_SortedByNestedPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchSortedFn = func(_ context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
		if q.SortBy != "height_cm" || !q.Descending {
			t.Errorf("unexpected sort: %s desc=%v", q.SortBy, q.Descending)
		}
		if q.RequireSort {
			t.Error("filtered lookup must not require the sort field")
		}
		return &db.SearchResult{}, nil
	}

	s := mustSort(t, "height", "DESC")
	if _, err := repo.SearchByFilters(context.Background(), table.Players, query.Filters{}, 3, &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchByFilters_MalformedJSON(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchSortedFn = func(context.Context, *db.SortedQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total:   1,
			Entries: []db.SearchEntry{{Key: "footrag:players:x", Fields: map[string]string{"$": "{broken"}}},
		}, nil
	}
	if _, err := repo.SearchByFilters(context.Background(), table.Players, query.Filters{}, 3, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

// --- SearchRanked ---

func TestSearchRanked_Goals(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchSortedFn = func(_ context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
		if q.SortBy != "goals" || !q.Descending || !q.RequireSort {
			t.Errorf("unexpected ranked query: %+v", q)
		}
		if c := q.Filters.Must(); len(c) != 1 || c[0].Match() != "Premier League" {
			t.Errorf("unexpected filters: %+v", c)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "footrag:players:haaland", Fields: map[string]string{"$": `{"name":"Haaland"}`}},
				{Key: "footrag:players:salah", Fields: map[string]string{"$": `{"name":"Salah"}`}},
			},
		}, nil
	}

	filters := query.FiltersFromStrings(map[string]string{"league": "Premier League"})
	docs, err := repo.SearchRanked(context.Background(), table.Players, filters, mustSort(t, "goals", "DESC"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != "haaland" || docs[1].ID() != "salah" {
		t.Fatalf("order not preserved: %+v", docs)
	}
}

func TestSearchRanked_AgeInvertsYear(t *testing.T) {
	tests := []struct {
		order    string
		wantDesc bool
	}{
		{"ASC", true},   // youngest → latest birth year first
		{"DESC", false}, // oldest → earliest birth year first
	}
	for _, tc := range tests {
		t.Run(tc.order, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ms.searchSortedFn = func(_ context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
				if q.SortBy != "birth_year" || q.Descending != tc.wantDesc {
					t.Errorf("sort = %s desc=%v, want birth_year desc=%v", q.SortBy, q.Descending, tc.wantDesc)
				}
				return &db.SearchResult{}, nil
			}
			if _, err := repo.SearchRanked(context.Background(), table.Players, query.Filters{}, mustSort(t, "age", tc.order), 5); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSearchRanked_UnsupportedOnTeams(t *testing.T) {
	repo, ms := newTestRepo(t)
	called := false
	ms.searchSortedFn = func(context.Context, *db.SortedQuery) (*db.SearchResult, error) {
		called = true
		return &db.SearchResult{}, nil
	}

	_, err := repo.SearchRanked(context.Background(), table.Teams, query.Filters{}, mustSort(t, "assists", "DESC"), 5)
	if !errors.Is(err, domain.ErrUnsupportedSort) {
		t.Fatalf("expected ErrUnsupportedSort, got %v", err)
	}
	if called {
		t.Error("store must not be called for an unsupported sort")
	}
}

// --- EnsureIndexes ---

func TestEnsureIndexes_CreatesMissing(t *testing.T) {
	ms := &mockStore{}
	var defs []*db.IndexDefinition
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		return name == "footrag:players:idx", nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		defs = append(defs, def)
		return nil
	}

	created, err := EnsureIndexes(context.Background(), ms, "", 768, HNSWConfig{M: 16, EFConstruct: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 || created[0] != "footrag:teams:idx" {
		t.Fatalf("created = %v", created)
	}
	def := defs[0]
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "footrag:teams:" {
		t.Errorf("unexpected definition: %s", def)
	}
	var country, sortable bool
	for _, f := range def.Fields {
		if f.Name == "$.country" && f.Alias == "nationality" {
			country = true
		}
		if f.Alias == "goals_for" && f.Sortable {
			sortable = true
		}
	}
	if !sortable {
		t.Errorf("teams goals_for must be sortable: %s", def)
	}
	if !country {
		t.Errorf("teams nationality must index $.country: %s", def)
	}
}

func TestEnsureIndexes_RaceIsIgnored(t *testing.T) {
	ms := &mockStore{}
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	created, err := EnsureIndexes(context.Background(), ms, "x:", 8, HNSWConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("created = %v, want none", created)
	}
}

func TestEnsureIndexes_Error(t *testing.T) {
	ms := &mockStore{}
	ms.indexExistsFn = func(context.Context, string) (bool, error) {
		return false, errors.New("boom")
	}
	if _, err := EnsureIndexes(context.Background(), ms, "", 8, HNSWConfig{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFromMap_NoMetadata(t *testing.T) {
	d := fromMap(table.Teams, "t-1", map[string]any{"name": "Arsenal"})
	if d.Metadata() == nil {
		t.Error("metadata must never be nil")
	}
	flat := d.Flatten()
	if flat[domentity.KeySourceTable] != "teams" {
		t.Errorf("source = %v", flat[domentity.KeySourceTable])
	}
}
