// Package pgentity implements the retrieval datastore over Postgres with pgvector,
// calling the server-side match_<table> and rank_<table> routines.
package pgentity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/kailas-cloud/footrag/internal/domain"
	domentity "github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
)

// querier is the consumer interface over *sql.DB (ISP).
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repo implements usecase/retrieval.Datastore.
type Repo struct {
	db querier
}

// New creates a Postgres entity repository.
func New(db querier) *Repo {
	return &Repo{db: db}
}

// SearchBySimilarity calls match_<table>(embedding, count, filter).
func (r *Repo) SearchBySimilarity(
	ctx context.Context, t table.Name, vector []float32, filters query.Filters, limit int,
) ([]domentity.Document, error) {
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}
	filterJSON, err := json.Marshal(s.columnFilters(filters))
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	q := fmt.Sprintf("SELECT id, doc, similarity FROM match_%s($1::vector, $2, $3::jsonb)", s.relation)
	rows, err := r.db.QueryContext(ctx, q, vectorLiteral(vector), limit, string(filterJSON))
	if err != nil {
		return nil, wrapErr("match_"+s.relation, err)
	}
	defer rows.Close()

	docs := make([]domentity.Document, 0, limit)
	for rows.Next() {
		var (
			id, raw    string
			similarity float64
		)
		if err := rows.Scan(&id, &raw, &similarity); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.relation, err)
		}
		doc, err := parseDocument(t, id, raw, &similarity)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("match_"+s.relation, err)
	}
	return docs, nil
}

// SearchByFilters runs an equality lookup, ordered by srt when present.
func (r *Repo) SearchByFilters(
	ctx context.Context, t table.Name, filters query.Filters, limit int, srt *query.Sort,
) ([]domentity.Document, error) {
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s::text, to_jsonb(t) - 'embedding' FROM %s t", s.idColumn, s.relation)

	cols := s.columnFilters(filters)
	names := make([]string, 0, len(cols))
	for c := range cols {
		names = append(names, c)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names)+1)
	for i, c := range names {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, cols[c])
		fmt.Fprintf(&b, "%s = $%d", c, len(args))
	}

	if srt != nil {
		p, desc, err := s.sortBy(t, *srt)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s NULLS LAST", p.expr(), dir)
	}

	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))

	return r.queryDocs(ctx, t, s.relation, b.String(), args...)
}

// SearchRanked calls rank_<table>(filter, sort_path, descending, count).
// Rows without a value at sort_path are excluded server-side.
func (r *Repo) SearchRanked(
	ctx context.Context, t table.Name, filters query.Filters, srt query.Sort, limit int,
) ([]domentity.Document, error) {
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}
	p, desc, err := s.sortBy(t, srt)
	if err != nil {
		return nil, err
	}
	filterJSON, err := json.Marshal(s.columnFilters(filters))
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	q := fmt.Sprintf("SELECT id, doc FROM rank_%s($1::jsonb, $2, $3, $4)", s.relation)
	return r.queryDocs(ctx, t, "rank_"+s.relation, q, string(filterJSON), pq.Array(p.path), desc, limit)
}

func (r *Repo) queryDocs(ctx context.Context, t table.Name, op, q string, args ...any) ([]domentity.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	docs := []domentity.Document{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		doc, err := parseDocument(t, id, raw, nil)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return docs, nil
}

func parseDocument(t table.Name, id, raw string, score *float64) (domentity.Document, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return domentity.Document{}, fmt.Errorf("decode %s %s: %w", t, id, err)
	}
	var meta map[string]any
	if v, ok := m[domentity.KeyMetadata].(map[string]any); ok {
		meta = v
	}
	delete(m, domentity.KeyMetadata)
	delete(m, "embedding")
	return domentity.New(t, id, m, meta, score), nil
}

// vectorLiteral renders a pgvector input literal: [0.1,0.2,...].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// transientClasses are SQLSTATE classes worth retrying: connection exception,
// insufficient resources, operator intervention.
var transientClasses = map[pq.ErrorClass]bool{
	"08": true,
	"53": true,
	"57": true,
}

func wrapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && transientClasses[pqErr.Code.Class()] {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
