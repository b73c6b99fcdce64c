package domain

import (
	"context"
	"strings"
)

// Prompt is a single-turn chat completion request.
type Prompt struct {
	System string
	User   string
	// JSON asks the provider for a JSON object response when it supports one.
	JSON bool
}

// ChatModel is the chat completion contract (single completion, no streaming).
type ChatModel interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// StripCodeFence removes a surrounding Markdown code fence (``` or ```json) from a model response.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
