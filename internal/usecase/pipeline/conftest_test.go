package pipeline

import (
	"context"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

type mockClassifier struct {
	classifyFn func(ctx context.Context, raw string) (query.Intent, error)
}

func (m *mockClassifier) Classify(ctx context.Context, raw string) (query.Intent, error) {
	return m.classifyFn(ctx, raw)
}

type mockRouter struct {
	route table.Route
	err   error
}

func (m *mockRouter) Route(_ context.Context, _ string) (table.Route, error) {
	return m.route, m.err
}

type mockEmbedder struct {
	texts []string
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.4, 0.5}}, nil
}

type mockRetriever struct {
	got        query.Context
	gotRoute   table.Route
	gotLimit   int
	calls      int
	retrieveFn func(qc query.Context, route table.Route) ([]entity.Document, error)
}

func (m *mockRetriever) Retrieve(
	_ context.Context, qc query.Context, route table.Route, limit int,
) ([]entity.Document, error) {
	m.calls++
	m.got, m.gotRoute, m.gotLimit = qc, route, limit
	if m.retrieveFn != nil {
		return m.retrieveFn(qc, route)
	}
	return []entity.Document{
		entity.New(table.Players, "p1", map[string]any{"name": "Bukayo Saka"}, nil, nil),
	}, nil
}

type mockGenerator struct {
	gotDocs     []entity.Document
	gotStrategy query.Strategy
	answer      string
	err         error
	panicWith   any
}

func (m *mockGenerator) Generate(
	_ context.Context, _ string, docs []entity.Document, strategy query.Strategy, _ query.Filters,
) (string, error) {
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	m.gotDocs, m.gotStrategy = docs, strategy
	if m.err != nil {
		return "", m.err
	}
	if m.answer == "" {
		return "generated answer", nil
	}
	return m.answer, nil
}

func classifyAs(in query.Intent) *mockClassifier {
	return &mockClassifier{classifyFn: func(context.Context, string) (query.Intent, error) { return in, nil }}
}
