// Package generate composes the final answer from retrieved documents.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/query"
)

const systemPrompt = "You are a football data assistant. " +
	"You answer questions about football players and teams using ONLY the provided context. " +
	"If the answer is not in the context or is unclear, say you don't know. " +
	"Always answer in the same language as the user's question."

const noDocuments = "No documents were retrieved from the database."

var skipFields = map[string]struct{}{"embedding": {}}

type chatModel interface {
	Complete(ctx context.Context, p domain.Prompt) (string, error)
}

// Service is the answer generator.
type Service struct {
	llm    chatModel
	logger *zap.Logger
}

// New creates an answer generator.
func New(llm chatModel, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, logger: logger}
}

// Generate asks the model to answer raw from docs. strategy and filters describe how
// docs were retrieved and may be zero.
func (s *Service) Generate(
	ctx context.Context, raw string, docs []entity.Document, strategy query.Strategy, filters query.Filters,
) (string, error) {
	answer, err := s.llm.Complete(ctx, domain.Prompt{
		System: systemPrompt,
		User:   userPrompt(raw, docs, strategy, filters),
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	s.logger.Debug("Answer generated",
		zap.Int("documents", len(docs)),
		zap.Int("answer_len", len(answer)),
	)
	return answer, nil
}

func userPrompt(raw string, docs []entity.Document, strategy query.Strategy, filters query.Filters) string {
	var b strings.Builder
	b.WriteString("User question:\n")
	b.WriteString(raw)
	b.WriteString("\n\n")
	if strategy.IsValid() {
		b.WriteString("Retrieval: ")
		b.WriteString(strategy.String())
		for _, k := range filters.Keys() {
			v, _ := filters.Get(k)
			fmt.Fprintf(&b, ", %s = %s", k, v)
		}
		b.WriteString("\n\n")
	}
	b.WriteString("Context from database:\n")
	b.WriteString(buildContext(docs))
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("- Use only the information in the context above.\n")
	b.WriteString("- If you are not sure, explicitly say you are not sure instead of guessing.\n")
	b.WriteString("- Provide a concise but complete answer.\n")
	return b.String()
}

func buildContext(docs []entity.Document) string {
	if len(docs) == 0 {
		return noDocuments
	}
	blocks := make([]string, len(docs))
	for i, d := range docs {
		blocks[i] = formatDoc(i+1, d)
	}
	return strings.Join(blocks, "\n\n")
}

// formatDoc renders one "[Doc i]" block with sorted "key: value" lines.
func formatDoc(idx int, d entity.Document) string {
	flat := d.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		if _, skip := skipFields[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+1)
	lines = append(lines, fmt.Sprintf("[Doc %d]", idx))
	for _, k := range keys {
		lines = append(lines, k+": "+formatValue(flat[k]))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}
