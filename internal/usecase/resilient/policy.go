// Package resilient wraps language-model and datastore collaborators with bounded retry.
package resilient

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

// Operation labels for footrag_retry_attempts_total.
const (
	OpEmbed  = "embed"
	OpChat   = "chat"
	OpSearch = "search"
)

// Policy bounds retries of transient collaborator failures.
type Policy struct {
	// Attempts is the total number of tries, including the first one. 1 disables retry.
	Attempts     uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPolicy is three tries with exponential backoff from 200ms capped at 2s.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func (p Policy) normalized() Policy {
	if p.Attempts == 0 {
		p.Attempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 200 * time.Millisecond
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	return p
}

// retryable reports whether err should be retried while ctx is still live.
// A DeadlineExceeded in the chain alone is not a stop signal: per-request
// client timeouts surface that way and are transient.
func retryable(ctx context.Context) func(error) bool {
	return func(err error) bool {
		return ctx.Err() == nil && domain.IsTransient(err)
	}
}

func do(ctx context.Context, p Policy, op string, logger *zap.Logger, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(p.Attempts),
		retry.Delay(p.InitialDelay),
		retry.MaxDelay(p.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable(ctx)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= p.Attempts {
				return
			}
			metrics.RetryAttemptsTotal.WithLabelValues(op).Inc()
			logger.Warn("Retrying transient failure",
				zap.String("operation", op),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
}
