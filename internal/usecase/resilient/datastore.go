package resilient

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
	"github.com/kailas-cloud/footrag/internal/usecase/retrieval"
)

// Compile-time check: Datastore implements retrieval.Datastore.
var _ retrieval.Datastore = (*Datastore)(nil)

// Datastore retries searches that failed with a transient datastore error.
type Datastore struct {
	inner  retrieval.Datastore
	policy Policy
	logger *zap.Logger
}

// NewDatastore wraps inner with the given retry policy.
func NewDatastore(inner retrieval.Datastore, p Policy, logger *zap.Logger) *Datastore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Datastore{inner: inner, policy: p.normalized(), logger: logger}
}

// SearchBySimilarity delegates with retry.
func (d *Datastore) SearchBySimilarity(
	ctx context.Context, t table.Name, vector []float32, filters query.Filters, limit int,
) ([]entity.Document, error) {
	return d.search(ctx, t, func() ([]entity.Document, error) {
		return d.inner.SearchBySimilarity(ctx, t, vector, filters, limit)
	})
}

// SearchByFilters delegates with retry.
func (d *Datastore) SearchByFilters(
	ctx context.Context, t table.Name, filters query.Filters, limit int, srt *query.Sort,
) ([]entity.Document, error) {
	return d.search(ctx, t, func() ([]entity.Document, error) {
		return d.inner.SearchByFilters(ctx, t, filters, limit, srt)
	})
}

// SearchRanked delegates with retry.
func (d *Datastore) SearchRanked(
	ctx context.Context, t table.Name, filters query.Filters, srt query.Sort, limit int,
) ([]entity.Document, error) {
	return d.search(ctx, t, func() ([]entity.Document, error) {
		return d.inner.SearchRanked(ctx, t, filters, srt, limit)
	})
}

func (d *Datastore) search(
	ctx context.Context, t table.Name, fn func() ([]entity.Document, error),
) ([]entity.Document, error) {
	var docs []entity.Document
	err := do(ctx, d.policy, OpSearch, d.logger.With(zap.String("table", string(t))), func() error {
		out, err := fn()
		if err != nil {
			return err
		}
		docs = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
