// Package classify selects the retrieval strategy, filters and sort for a query.
package classify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

const component = "classifier"

type chatModel interface {
	Complete(ctx context.Context, p domain.Prompt) (string, error)
}

// Service is the strategy classifier.
type Service struct {
	llm    chatModel
	logger *zap.Logger
}

// New creates a classifier.
func New(llm chatModel, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, logger: logger}
}

// Classify issues one structured-output request and returns the query intent.
// Malformed output and provider failures fall back to query.FallbackIntent;
// the only error returned is the caller's context being done.
func (s *Service) Classify(ctx context.Context, raw string) (query.Intent, error) {
	resp, err := s.llm.Complete(ctx, domain.Prompt{
		System: systemPrompt,
		User:   userPrompt(raw),
		JSON:   true,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return query.Intent{}, fmt.Errorf("classify: %w", cerr)
		}
		return s.fallback(raw, reasonLLMError, err), nil
	}

	intent, adjusted, err := parse(raw, resp)
	if err != nil {
		reason := reasonParse
		var pe *parseError
		if errors.As(err, &pe) {
			reason = pe.reason
		}
		return s.fallback(raw, reason, err), nil
	}
	if adjusted != "" {
		metrics.FallbacksTotal.WithLabelValues(component, adjusted).Inc()
		s.logger.Warn("Classifier output adjusted",
			zap.String("reason", adjusted),
			zap.String("strategy", intent.Strategy().String()),
		)
	}
	return intent, nil
}

func (s *Service) fallback(raw, reason string, err error) query.Intent {
	metrics.FallbacksTotal.WithLabelValues(component, reason).Inc()
	s.logger.Warn("Classifier fell back to hybrid",
		zap.String("reason", reason),
		zap.Error(err),
	)
	return query.FallbackIntent(raw)
}
