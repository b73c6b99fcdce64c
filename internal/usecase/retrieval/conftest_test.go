package retrieval

import (
	"context"
	"sync"
	"testing"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

type call struct {
	method  string
	table   table.Name
	vector  []float32
	filters query.Filters
	limit   int
	sort    *query.Sort
}

type mockStore struct {
	mu    sync.Mutex
	calls []call

	similarityFn func(t table.Name, vector []float32) ([]entity.Document, error)
	filtersFn    func(t table.Name) ([]entity.Document, error)
	rankedFn     func(t table.Name, srt query.Sort) ([]entity.Document, error)
}

func (m *mockStore) record(c call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *mockStore) callsTo(method string) []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []call
	for _, c := range m.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockStore) SearchBySimilarity(
	_ context.Context, t table.Name, vector []float32, filters query.Filters, limit int,
) ([]entity.Document, error) {
	m.record(call{method: "similarity", table: t, vector: vector, filters: filters, limit: limit})
	if m.similarityFn != nil {
		return m.similarityFn(t, vector)
	}
	return docsFor(t), nil
}

func (m *mockStore) SearchByFilters(
	_ context.Context, t table.Name, filters query.Filters, limit int, srt *query.Sort,
) ([]entity.Document, error) {
	m.record(call{method: "filters", table: t, filters: filters, limit: limit, sort: srt})
	if m.filtersFn != nil {
		return m.filtersFn(t)
	}
	return docsFor(t), nil
}

func (m *mockStore) SearchRanked(
	_ context.Context, t table.Name, filters query.Filters, srt query.Sort, limit int,
) ([]entity.Document, error) {
	m.record(call{method: "ranked", table: t, filters: filters, limit: limit, sort: &srt})
	if m.rankedFn != nil {
		return m.rankedFn(t, srt)
	}
	return docsFor(t), nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

type mockDecomposer struct {
	result query.Decomposition
	err    error
	calls  int
}

func (m *mockDecomposer) Decompose(_ context.Context, raw string) (query.Decomposition, error) {
	m.calls++
	if m.err != nil {
		return query.Decomposition{}, m.err
	}
	if m.result == (query.Decomposition{}) {
		return query.Verbatim(raw), nil
	}
	return m.result, nil
}

func docsFor(t table.Name) []entity.Document {
	return []entity.Document{
		entity.New(t, string(t)+"-1", map[string]any{"name": string(t) + " one"}, nil, nil),
		entity.New(t, string(t)+"-2", map[string]any{"name": string(t) + " two"}, nil, nil),
	}
}

func newService(store *mockStore, emb *mockEmbedder, dec *mockDecomposer) *Service {
	return New(store, emb, dec, nil)
}

func mustContext(t testing.TB, in query.Intent, vec []float32) query.Context {
	t.Helper()
	qc, err := query.New(in, vec)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return qc
}

func mustIntent(t testing.TB, raw string, s query.Strategy, f query.Filters, srt *query.Sort) query.Intent {
	t.Helper()
	in, err := query.NewIntent(raw, s, f, srt)
	if err != nil {
		t.Fatalf("query.NewIntent: %v", err)
	}
	return in
}
