package resilient

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
)

// Embedder retries transient embedding failures.
type Embedder struct {
	inner  domain.Embedder
	policy Policy
	logger *zap.Logger
}

// NewEmbedder wraps inner with the given retry policy.
func NewEmbedder(inner domain.Embedder, p Policy, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{inner: inner, policy: p.normalized(), logger: logger}
}

// Embed delegates to the inner embedder, retrying transient errors.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var res domain.EmbeddingResult
	err := do(ctx, e.policy, OpEmbed, e.logger, func() error {
		r, err := e.inner.Embed(ctx, text)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return res, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
