package resilient

import (
	"context"
	"time"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

type fakeEmbedder struct {
	calls     int
	errs      []error
	healthErr error
	onCall    func()
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return domain.EmbeddingResult{}, f.errs[f.calls-1]
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 3}, nil
}

func (f *fakeEmbedder) HealthCheck(_ context.Context) error { return f.healthErr }

type fakeChat struct {
	calls int
	errs  []error
}

func (f *fakeChat) Complete(_ context.Context, _ domain.Prompt) (string, error) {
	f.calls++
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return "", f.errs[f.calls-1]
	}
	return "answer", nil
}

func fastPolicy(attempts uint) Policy {
	return Policy{Attempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

type fakeStore struct {
	calls int
	errs  []error
}

func (f *fakeStore) next() ([]entity.Document, error) {
	f.calls++
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return []entity.Document{entity.New(table.Players, "p1", nil, nil, nil)}, nil
}

func (f *fakeStore) SearchBySimilarity(
	context.Context, table.Name, []float32, query.Filters, int,
) ([]entity.Document, error) {
	return f.next()
}

func (f *fakeStore) SearchByFilters(
	context.Context, table.Name, query.Filters, int, *query.Sort,
) ([]entity.Document, error) {
	return f.next()
}

func (f *fakeStore) SearchRanked(
	context.Context, table.Name, query.Filters, query.Sort, int,
) ([]entity.Document, error) {
	return f.next()
}
