package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/footrag/internal/db"
	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

// indexStore is the consumer interface for index bootstrap (ISP).
type indexStore interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// EnsureIndexes creates the FT index for every table that does not have one yet.
// Returns the names of created indexes.
func EnsureIndexes(
	ctx context.Context, s indexStore, prefix string, dim int, hnsw HNSWConfig,
) ([]string, error) {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}

	var created []string
	for _, t := range table.All {
		def, err := buildIndex(prefix, t, dim, hnsw)
		if err != nil {
			return created, fmt.Errorf("build index %s: %w", t, err)
		}

		exists, err := s.IndexExists(ctx, def.Name)
		if err != nil {
			return created, fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}

		if err := s.CreateIndex(ctx, def); err != nil {
			if errors.Is(err, db.ErrIndexExists) {
				continue
			}
			return created, fmt.Errorf("create index %s: %w", def.Name, err)
		}
		created = append(created, def.Name)
	}
	return created, nil
}
