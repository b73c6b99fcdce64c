package classify

import (
	"context"

	"github.com/kailas-cloud/footrag/internal/domain"
)

type mockChat struct {
	completeFn func(ctx context.Context, p domain.Prompt) (string, error)
	prompts    []domain.Prompt
}

func (m *mockChat) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	m.prompts = append(m.prompts, p)
	if m.completeFn != nil {
		return m.completeFn(ctx, p)
	}
	return "", nil
}

func replying(resp string) *mockChat {
	return &mockChat{completeFn: func(context.Context, domain.Prompt) (string, error) {
		return resp, nil
	}}
}
