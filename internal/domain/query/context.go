package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Context is the immutable per-request retrieval plan (QueryContext).
// Invariants, enforced by New and NewDeferred:
//   - a query vector (eager or deferred) is present iff strategy is Semantic or Hybrid;
//   - sort is non-nil iff strategy is Ranking.
type Context struct {
	intent    Intent
	embedding []float32
	deferred  *deferredEmbedding
}

// EmbedFunc computes the query vector on demand.
type EmbedFunc func(ctx context.Context) ([]float32, error)

type deferredEmbedding struct {
	once sync.Once
	fn   EmbedFunc
	vec  []float32
	err  error
}

// ErrEmptyEmbedding is returned when a deferred embedding resolves to no vector.
var ErrEmptyEmbedding = errors.New("empty query embedding")

// New binds an embedding to a classified intent.
// Pass nil for strategies that do not search by vector.
func New(intent Intent, embedding []float32) (Context, error) {
	if !intent.strategy.IsValid() {
		return Context{}, fmt.Errorf("intent has no strategy")
	}
	if intent.strategy.NeedsEmbedding() && len(embedding) == 0 {
		return Context{}, fmt.Errorf("%s requires an embedding", intent.strategy)
	}
	if !intent.strategy.NeedsEmbedding() && len(embedding) > 0 {
		return Context{}, fmt.Errorf("%s must not carry an embedding", intent.strategy)
	}
	var vec []float32
	if len(embedding) > 0 {
		vec = make([]float32, len(embedding))
		copy(vec, embedding)
	}
	return Context{intent: intent, embedding: vec}, nil
}

// NewDeferred binds a lazily computed embedding to an intent that needs one.
// fn runs at most once, on the first Vector call; concurrent callers share its result.
func NewDeferred(intent Intent, fn EmbedFunc) (Context, error) {
	if !intent.strategy.IsValid() {
		return Context{}, fmt.Errorf("intent has no strategy")
	}
	if !intent.strategy.NeedsEmbedding() {
		return Context{}, fmt.Errorf("%s must not carry an embedding", intent.strategy)
	}
	if fn == nil {
		return Context{}, fmt.Errorf("%s requires an embedding", intent.strategy)
	}
	return Context{intent: intent, deferred: &deferredEmbedding{fn: fn}}, nil
}

// RawQuery returns the user's query text.
func (c Context) RawQuery() string { return c.intent.raw }

// Strategy returns the selected strategy.
func (c Context) Strategy() Strategy { return c.intent.strategy }

// Filters returns the equality constraints.
func (c Context) Filters() Filters { return c.intent.filters }

// Sort returns the sort clause; nil unless strategy is Ranking.
func (c Context) Sort() *Sort { return c.intent.Sort() }

// Embedding returns the eagerly bound query vector; nil for deferred embeddings
// and for strategies that need none. The returned slice must not be modified.
func (c Context) Embedding() []float32 { return c.embedding }

// HasEmbedding reports whether a query vector is attached or deferred.
func (c Context) HasEmbedding() bool { return len(c.embedding) > 0 || c.deferred != nil }

// IsDeferred reports whether the query vector is computed on first use.
func (c Context) IsDeferred() bool { return c.deferred != nil }

// Vector returns the query vector, computing a deferred one on first use.
// The returned slice must not be modified.
func (c Context) Vector(ctx context.Context) ([]float32, error) {
	d := c.deferred
	if d == nil {
		return c.embedding, nil
	}
	d.once.Do(func() {
		vec, err := d.fn(ctx)
		switch {
		case err != nil:
			d.err = err
		case len(vec) == 0:
			d.err = ErrEmptyEmbedding
		default:
			d.vec = vec
		}
	})
	return d.vec, d.err
}
