package retrieval

import (
	"context"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

// Datastore is the entity search contract implemented by the Redis and Postgres repositories.
type Datastore interface {
	SearchBySimilarity(
		ctx context.Context, t table.Name, vector []float32, filters query.Filters, limit int,
	) ([]entity.Document, error)
	SearchByFilters(
		ctx context.Context, t table.Name, filters query.Filters, limit int, srt *query.Sort,
	) ([]entity.Document, error)
	SearchRanked(
		ctx context.Context, t table.Name, filters query.Filters, srt query.Sort, limit int,
	) ([]entity.Document, error)
}

type embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

type decomposer interface {
	Decompose(ctx context.Context, raw string) (query.Decomposition, error)
}
