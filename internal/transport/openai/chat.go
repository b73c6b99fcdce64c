package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

const opChat = "chat"

// ChatConfig holds chat completion settings on top of the provider Config.
type ChatConfig struct {
	Config
	Temperature float32
	MaxTokens   int
}

// Chat is a chat completion client using the OpenAI-compatible API.
type Chat struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	user        string
	logger      *zap.Logger
}

// NewChat creates an OpenAI-compatible chat completion client.
func NewChat(cfg *ChatConfig) *Chat {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Chat{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		user:        cfg.User,
		logger:      cfg.Logger,
	}
}

// Complete implements domain.ChatModel: one synchronous completion, no streaming.
// Prompt.JSON requests a JSON object response.
func (c *Chat) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: p.User,
	})

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		User:        c.user,
	}
	if p.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		err = parseAPIError(ctx, "chat", domain.ErrLLMProviderError, err)
		metrics.LLMRequestsTotal.WithLabelValues(opChat, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(opChat, c.model, errorType(ctx, err)).Inc()
		return "", err
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(opChat, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(opChat, c.model, "empty_response").Inc()
		return "", fmt.Errorf("empty chat response: %w", domain.ErrLLMProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(opChat, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(opChat, c.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(opChat, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(opChat, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	c.logger.Debug("Chat completion",
		zap.String("model", c.model),
		zap.Bool("json", p.JSON),
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Chat) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
