// Package retrieval executes the strategy-specific datastore lookups for a query.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

// Failure kinds reported in footrag_retrieval_failures_total.
const (
	kindPrecondition    = "precondition"
	kindTable           = "table"
	kindEmbedding       = "embedding"
	kindUnsupportedSort = "unsupported_sort"
	kindAllTables       = "all_tables"
)

// Service is the retrieval dispatcher.
type Service struct {
	store      Datastore
	embedder   embedder
	decomposer decomposer
	logger     *zap.Logger
	parallel   bool
}

// New creates a dispatcher. embedder and decomposer serve vector searches routed to both tables.
func New(store Datastore, emb embedder, dec decomposer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embedder: emb, decomposer: dec, logger: logger, parallel: true}
}

// WithParallel toggles concurrent per-table searches under both routing.
func (s *Service) WithParallel(p bool) *Service {
	s.parallel = p
	return s
}

type searchFn func(ctx context.Context, t table.Name) ([]entity.Document, error)

type embedError struct{ err error }

func (e *embedError) Error() string { return "embed sub-query: " + e.err.Error() }

func (e *embedError) Unwrap() error { return e.err }

// Retrieve runs the path selected by the query strategy against the routed tables.
// Results from two tables are concatenated players first. The returned slice is never
// nil on success.
func (s *Service) Retrieve(
	ctx context.Context, qc query.Context, route table.Route, limit int,
) ([]entity.Document, error) {
	if limit <= 0 {
		return nil, s.precondition(domain.NewPrecondition(qc.Strategy().String(), "a positive limit"))
	}

	switch qc.Strategy() {
	case query.FiltersOnly:
		return s.filtered(ctx, route, qc.Filters(), qc.Sort(), limit)
	case query.Ranking:
		return s.ranked(ctx, route, qc.Filters(), qc.Sort(), limit)
	case query.Semantic:
		return s.similar(ctx, qc, route, query.Filters{}, limit)
	case query.Hybrid:
		return s.similar(ctx, qc, route, qc.Filters(), limit)
	default:
		return nil, s.precondition(domain.NewPrecondition(qc.Strategy().String(), "a known strategy"))
	}
}

// filtered is the equality lookup, optionally ordered.
func (s *Service) filtered(
	ctx context.Context, route table.Route, filters query.Filters, srt *query.Sort, limit int,
) ([]entity.Document, error) {
	per := perTable(route, limit)
	return s.run(ctx, query.FiltersOnly, route, func(ctx context.Context, t table.Name) ([]entity.Document, error) {
		return s.store.SearchByFilters(ctx, t, filters, per, srt)
	})
}

// ranked orders by a sortable attribute. A missing sort fails before any datastore call.
func (s *Service) ranked(
	ctx context.Context, route table.Route, filters query.Filters, srt *query.Sort, limit int,
) ([]entity.Document, error) {
	if srt == nil {
		return nil, s.precondition(domain.NewPrecondition(query.Ranking.String(), "a sort clause"))
	}
	per := perTable(route, limit)
	by := *srt
	return s.run(ctx, query.Ranking, route, func(ctx context.Context, t table.Name) ([]entity.Document, error) {
		return s.store.SearchRanked(ctx, t, filters, by, per)
	})
}

// similar is the vector search shared by semantic and hybrid. Under both routing each
// table is searched with its own decomposed sub-question, embedded independently;
// a sub-question equal to the original query uses the query vector, resolving a
// deferred one at most once.
func (s *Service) similar(
	ctx context.Context, qc query.Context, route table.Route, filters query.Filters, limit int,
) ([]entity.Document, error) {
	strategy := qc.Strategy()
	if !qc.HasEmbedding() {
		return nil, s.precondition(domain.NewPrecondition(strategy.String(), "a query embedding"))
	}

	if !route.IsBoth() {
		return s.run(ctx, strategy, route, func(ctx context.Context, t table.Name) ([]entity.Document, error) {
			vec, err := qc.Vector(ctx)
			if err != nil {
				return nil, &embedError{err: err}
			}
			return s.store.SearchBySimilarity(ctx, t, vec, filters, limit)
		})
	}

	raw := qc.RawQuery()
	dec, err := s.decomposer.Decompose(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}
	s.logger.Debug("Query decomposed",
		zap.String("players", dec.Players),
		zap.String("teams", dec.Teams),
	)

	return s.run(ctx, strategy, route, func(ctx context.Context, t table.Name) ([]entity.Document, error) {
		vec, err := s.vectorFor(ctx, qc, dec.For(t))
		if err != nil {
			return nil, &embedError{err: err}
		}
		return s.store.SearchBySimilarity(ctx, t, vec, filters, limit)
	})
}

func (s *Service) vectorFor(ctx context.Context, qc query.Context, sub string) ([]float32, error) {
	if sub == qc.RawQuery() {
		return qc.Vector(ctx)
	}
	res, err := s.embedder.Embed(ctx, sub)
	if err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

// run executes fn on every routed table. A single-table failure is a retrieval error;
// under both routing a failing table is logged and skipped unless every table fails.
func (s *Service) run(
	ctx context.Context, strategy query.Strategy, route table.Route, fn searchFn,
) ([]entity.Document, error) {
	tables := route.Tables()

	if len(tables) == 1 {
		t := tables[0]
		docs, err := fn(ctx, t)
		if err != nil {
			metrics.RetrievalFailuresTotal.WithLabelValues(kindOf(err)).Inc()
			s.logger.Error("Retrieval failed",
				zap.String("strategy", strategy.String()),
				zap.String("table", string(t)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %s on %s: %w", domain.ErrRetrieval, strategy, t, err)
		}
		return nonNil(docs), nil
	}

	results := make([][]entity.Document, len(tables))
	errs := make([]error, len(tables))
	if s.parallel {
		var g errgroup.Group
		for i, t := range tables {
			g.Go(func() error {
				results[i], errs[i] = fn(ctx, t)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, t := range tables {
			results[i], errs[i] = fn(ctx, t)
		}
	}

	out := make([]entity.Document, 0)
	var failed []error
	for i, t := range tables {
		if errs[i] != nil {
			metrics.RetrievalFailuresTotal.WithLabelValues(kindOf(errs[i])).Inc()
			s.logger.Warn("Table search failed, skipping",
				zap.String("strategy", strategy.String()),
				zap.String("table", string(t)),
				zap.Error(errs[i]),
			)
			failed = append(failed, fmt.Errorf("%s: %w", t, errs[i]))
			continue
		}
		out = append(out, results[i]...)
	}

	if len(failed) == len(tables) {
		metrics.RetrievalFailuresTotal.WithLabelValues(kindAllTables).Inc()
		return nil, fmt.Errorf("%w: %s on all tables: %w", domain.ErrRetrieval, strategy, errors.Join(failed...))
	}
	return out, nil
}

func (s *Service) precondition(err error) error {
	metrics.RetrievalFailuresTotal.WithLabelValues(kindPrecondition).Inc()
	s.logger.Error("Retrieval precondition violated", zap.Error(err))
	return err
}

// perTable splits the limit evenly across both tables, at least one each.
func perTable(route table.Route, limit int) int {
	if !route.IsBoth() {
		return limit
	}
	return max(1, limit/2)
}

func kindOf(err error) string {
	var ee *embedError
	switch {
	case errors.As(err, &ee):
		return kindEmbedding
	case errors.Is(err, domain.ErrUnsupportedSort):
		return kindUnsupportedSort
	default:
		return kindTable
	}
}

func nonNil(docs []entity.Document) []entity.Document {
	if docs == nil {
		return []entity.Document{}
	}
	return docs
}
