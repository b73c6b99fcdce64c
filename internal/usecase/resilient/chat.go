package resilient

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
)

// ChatModel retries transient chat completion failures.
type ChatModel struct {
	inner  domain.ChatModel
	policy Policy
	logger *zap.Logger
}

// NewChatModel wraps inner with the given retry policy.
func NewChatModel(inner domain.ChatModel, p Policy, logger *zap.Logger) *ChatModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatModel{inner: inner, policy: p.normalized(), logger: logger}
}

// Complete delegates to the inner model, retrying transient errors.
func (c *ChatModel) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	var out string
	err := do(ctx, c.policy, OpChat, c.logger, func() error {
		s, err := c.inner.Complete(ctx, p)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// HealthCheck delegates to the inner model when it supports health checks.
func (c *ChatModel) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
