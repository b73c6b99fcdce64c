// Package pipeline sequences classification, routing, retrieval and answer generation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
	"github.com/kailas-cloud/footrag/internal/logger"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

// FailureMessage is the answer returned when a query cannot be served.
const FailureMessage = "Sorry, I could not answer your question right now. Please try again later."

// MaxQueryLength is the longest accepted query, in characters.
const MaxQueryLength = 1000

const (
	defaultLimit = 5
	defaultMax   = 50

	statusOK    = "ok"
	statusError = "error"
)

// Response is the answer contract.
type Response struct {
	Answer   string
	Context  []entity.Document
	Strategy string
	Filters  map[string]string
	Route    table.Route
}

// Service is the pipeline orchestrator.
type Service struct {
	classifier classifier
	router     router
	embedder   embedder
	retriever  retriever
	generator  generator
	limit      int
	maxLimit   int
}

// New creates an orchestrator.
func New(cls classifier, rt router, emb embedder, ret retriever, gen generator) *Service {
	return &Service{
		classifier: cls,
		router:     rt,
		embedder:   emb,
		retriever:  ret,
		generator:  gen,
		limit:      defaultLimit,
		maxLimit:   defaultMax,
	}
}

// WithLimits sets the default and maximum number of documents retrieved per query.
func (s *Service) WithLimits(limit, maxLimit int) *Service {
	if limit > 0 {
		s.limit = limit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	if s.limit > s.maxLimit {
		s.limit = s.maxLimit
	}
	return s
}

// Validate rejects empty and oversized queries.
func Validate(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(raw); n > MaxQueryLength {
		return fmt.Errorf("%w: query has %d characters, max %d", domain.ErrInvalidQuery, n, MaxQueryLength)
	}
	return nil
}

// Answer runs the full pipeline with the default limit. It never fails: any error
// or panic from a collaborator becomes FailureMessage with an empty context.
func (s *Service) Answer(ctx context.Context, raw string) Response {
	return s.AnswerLimit(ctx, raw, 0)
}

// AnswerLimit is Answer retrieving up to limit documents, capped at the maximum.
// A non-positive limit selects the default.
func (s *Service) AnswerLimit(ctx context.Context, raw string, limit int) (resp Response) {
	start := time.Now()
	if limit <= 0 {
		limit = s.limit
	}
	limit = min(limit, s.maxLimit)
	raw = strings.TrimSpace(raw)
	ctx, log := logger.With(ctx, zap.String("query_id", uuid.NewString()))

	resp = Response{Filters: map[string]string{}, Route: table.RouteUnknown}

	defer func() {
		if rvr := recover(); rvr != nil {
			log.Error("Pipeline panic recovered",
				zap.Any("panic", rvr),
				zap.Stack("stacktrace"),
			)
			resp = failed(resp)
		}
		status := statusOK
		if resp.Answer == FailureMessage {
			status = statusError
		}
		strategy := resp.Strategy
		if strategy == "" {
			strategy = "none"
		}
		metrics.QueriesTotal.WithLabelValues(strategy, string(resp.Route), status).Inc()
		metrics.QueryDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	}()

	if err := Validate(raw); err != nil {
		log.Warn("Query rejected", zap.Error(err))
		return failed(resp)
	}

	out, err := s.answer(ctx, raw, limit, &resp)
	if err != nil {
		log.Error("Query failed",
			zap.String("strategy", resp.Strategy),
			zap.String("route", string(resp.Route)),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return failed(resp)
	}

	log.Info("Query answered",
		zap.String("strategy", out.Strategy),
		zap.Any("filters", out.Filters),
		zap.String("route", string(out.Route)),
		zap.Int("documents", len(out.Context)),
		zap.Duration("latency", time.Since(start)),
	)
	return out
}

// answer fills progress into resp as each stage completes so failures can report it.
func (s *Service) answer(ctx context.Context, raw string, limit int, resp *Response) (Response, error) {
	intent, err := s.classifier.Classify(ctx, raw)
	if err != nil {
		return *resp, fmt.Errorf("classify: %w", err)
	}
	resp.Strategy = intent.Strategy().String()
	resp.Filters = intent.Filters().Map()

	route, err := s.router.Route(ctx, raw)
	if err != nil {
		return *resp, fmt.Errorf("route: %w", err)
	}
	resp.Route = route.Resolve()

	qc, err := s.plan(ctx, raw, intent, route)
	if err != nil {
		return *resp, err
	}

	docs, err := s.retriever.Retrieve(ctx, qc, route, limit)
	if err != nil {
		return *resp, fmt.Errorf("retrieve: %w", err)
	}

	answer, err := s.generator.Generate(ctx, raw, docs, qc.Strategy(), qc.Filters())
	if err != nil {
		return *resp, fmt.Errorf("generate: %w", err)
	}

	resp.Answer = answer
	resp.Context = docs
	return *resp, nil
}

// plan binds the query vector to intent. Under both routing the raw query is only
// embedded if the retriever falls back to it; decomposed sub-questions get their own.
func (s *Service) plan(ctx context.Context, raw string, intent query.Intent, route table.Route) (query.Context, error) {
	var (
		qc  query.Context
		err error
	)
	switch {
	case !intent.Strategy().NeedsEmbedding():
		qc, err = query.New(intent, nil)
	case route.IsBoth():
		qc, err = query.NewDeferred(intent, func(ctx context.Context) ([]float32, error) {
			res, err := s.embedder.Embed(ctx, raw)
			if err != nil {
				return nil, fmt.Errorf("embed query: %w", err)
			}
			return res.Embedding, nil
		})
	default:
		res, embedErr := s.embedder.Embed(ctx, raw)
		if embedErr != nil {
			return query.Context{}, fmt.Errorf("embed query: %w", embedErr)
		}
		qc, err = query.New(intent, res.Embedding)
	}
	if err != nil {
		return query.Context{}, fmt.Errorf("%w: %w", domain.ErrPrecondition, err)
	}
	return qc, nil
}

func failed(resp Response) Response {
	resp.Answer = FailureMessage
	resp.Context = []entity.Document{}
	if resp.Filters == nil {
		resp.Filters = map[string]string{}
	}
	return resp
}
