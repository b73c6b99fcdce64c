// Package entity implements the retrieval datastore over Redis JSON documents
// indexed with RediSearch.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/footrag/internal/db"
	"github.com/kailas-cloud/footrag/internal/domain"
	domentity "github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

// store is the consumer interface for entity search (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchSorted(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error)
}

// Repo implements usecase/retrieval.Datastore.
type Repo struct {
	store  store
	prefix string
}

// New creates an entity repository. An empty prefix means domain.KeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// SearchBySimilarity runs a KNN search with TAG pre-filters.
func (r *Repo) SearchBySimilarity(
	ctx context.Context, t table.Name, vector []float32, filters query.Filters, limit int,
) ([]domentity.Document, error) {
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}
	expr, err := s.expression(filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(r.prefix, t),
		Filters:      expr,
		Vector:       vector,
		K:            limit,
		ReturnFields: []string{jsonField, "__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", t, err)
	}
	return r.parseResults(t, sr, true)
}

// SearchByFilters runs an equality lookup, ordered by srt when present.
func (r *Repo) SearchByFilters(
	ctx context.Context, t table.Name, filters query.Filters, limit int, srt *query.Sort,
) ([]domentity.Document, error) {
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}
	expr, err := s.expression(filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	q := &db.SortedQuery{
		IndexName:    indexName(r.prefix, t),
		Filters:      expr,
		Limit:        limit,
		ReturnFields: []string{jsonField},
	}
	if srt != nil {
		alias, desc, err := s.sortBy(t, *srt)
		if err != nil {
			return nil, err
		}
		q.SortBy, q.Descending = alias, desc
	}

	sr, err := r.store.SearchSorted(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search filters %s: %w", t, err)
	}
	return r.parseResults(t, sr, false)
}

// SearchRanked returns the top documents by a numeric attribute. Documents
// without a value for the attribute are excluded.
func (r *Repo) SearchRanked(
	ctx context.Context, t table.Name, filters query.Filters, srt query.Sort, limit int,
) ([]domentity.Document, error) {
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}
	alias, desc, err := s.sortBy(t, srt)
	if err != nil {
		return nil, err
	}
	expr, err := s.expression(filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	sr, err := r.store.SearchSorted(ctx, &db.SortedQuery{
		IndexName:    indexName(r.prefix, t),
		Filters:      expr,
		SortBy:       alias,
		Descending:   desc,
		RequireSort:  true,
		Limit:        limit,
		ReturnFields: []string{jsonField},
	})
	if err != nil {
		return nil, fmt.Errorf("search ranked %s: %w", t, err)
	}
	return r.parseResults(t, sr, false)
}

func (r *Repo) parseResults(t table.Name, sr *db.SearchResult, scored bool) ([]domentity.Document, error) {
	if sr == nil || len(sr.Entries) == 0 {
		return []domentity.Document{}, nil
	}

	prefix := keyPrefix(r.prefix, t)
	docs := make([]domentity.Document, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		doc, err := parseDocument(t, id, entry.Fields[jsonField])
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Key, err)
		}
		if scored {
			score := entry.Score
			doc = domentity.New(t, id, doc.Attributes(), doc.Metadata(), &score)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// parseDocument decodes a returned JSON document. DIALECT 3 wraps the
// document in a one-element array.
func parseDocument(t table.Name, id, raw string) (domentity.Document, error) {
	if raw == "" {
		return domentity.New(t, id, nil, nil, nil), nil
	}

	var m map[string]any
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		var arr []map[string]any
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return domentity.Document{}, err
		}
		if len(arr) == 0 {
			return domentity.Document{}, errors.New("empty document")
		}
		m = arr[0]
	} else if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return domentity.Document{}, err
	}

	return fromMap(t, id, m), nil
}

// fromMap splits a raw record into attributes and metadata, dropping the embedding.
func fromMap(t table.Name, id string, m map[string]any) domentity.Document {
	var meta map[string]any
	if v, ok := m[domentity.KeyMetadata].(map[string]any); ok {
		meta = v
	}
	attrs := make(map[string]any, len(m))
	for k, v := range m {
		if k == domentity.KeyMetadata || k == "embedding" {
			continue
		}
		attrs[k] = v
	}
	return domentity.New(t, id, attrs, meta, nil)
}
