package pipeline

import (
	"context"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

type classifier interface {
	Classify(ctx context.Context, raw string) (query.Intent, error)
}

type router interface {
	Route(ctx context.Context, raw string) (table.Route, error)
}

type embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

type retriever interface {
	Retrieve(ctx context.Context, qc query.Context, route table.Route, limit int) ([]entity.Document, error)
}

type generator interface {
	Generate(
		ctx context.Context, raw string, docs []entity.Document, strategy query.Strategy, filters query.Filters,
	) (string, error)
}
