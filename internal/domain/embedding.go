package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns query text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is one embedding plus the tokens it cost (zero on cache hits).
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// InstructionEmbedder prefixes query text with a task instruction, e.g.
// "Represent this football question for retrieving player profiles: ".
// It sits outermost in the chain so cache keys include the instruction.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates the decorator. A missing trailing space is added.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	if instruction != "" && !strings.HasSuffix(instruction, " ") {
		instruction += " "
	}
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prefixes the instruction and delegates.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports it.
func (e *InstructionEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
