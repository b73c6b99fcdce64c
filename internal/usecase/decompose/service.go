// Package decompose splits a cross-table query into one sub-question per table.
package decompose

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

const component = "decomposer"

const (
	reasonLLMError     = "llm_error"
	reasonParse        = "parse_error"
	reasonMissingField = "missing_field"
	reasonIdentical    = "identical"
)

const systemPrompt = `You split a football question that needs two database tables into two independent sub-questions.
- "players": a question answerable from the players table alone (footballers, their stats and current club).
- "teams": a question answerable from the teams table alone (clubs, stadiums, league, season stats).
Keep names from the original question. Write both sub-questions in the language of the original question.

Return ONLY a JSON object: {"players": "<sub-question>", "teams": "<sub-question>"}

Example:
Question: "Which team does Bukayo Saka play for and where is their stadium?"
{"players": "Which team does Bukayo Saka play for?", "teams": "Where is the stadium of Bukayo Saka's team?"}`

type chatModel interface {
	Complete(ctx context.Context, p domain.Prompt) (string, error)
}

// Service is the query decomposer.
type Service struct {
	llm    chatModel
	logger *zap.Logger
}

// New creates a decomposer.
func New(llm chatModel, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, logger: logger}
}

// Decompose issues one structured-output request. Any failure, or two identical
// sub-questions, falls back to query.Verbatim(raw). The only error returned is the
// caller's context being done.
func (s *Service) Decompose(ctx context.Context, raw string) (query.Decomposition, error) {
	resp, err := s.llm.Complete(ctx, domain.Prompt{
		System: systemPrompt,
		User:   "Question: " + strconv.Quote(raw),
		JSON:   true,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return query.Decomposition{}, fmt.Errorf("decompose: %w", cerr)
		}
		return s.fallback(raw, reasonLLMError, zap.Error(err)), nil
	}

	body := domain.StripCodeFence(resp)
	if !gjson.Valid(body) {
		return s.fallback(raw, reasonParse, zap.Int("response_len", len(resp))), nil
	}

	res := gjson.GetMany(body, "players", "teams")
	players := strings.TrimSpace(res[0].String())
	teams := strings.TrimSpace(res[1].String())
	if res[0].Type != gjson.String || res[1].Type != gjson.String || players == "" || teams == "" {
		return s.fallback(raw, reasonMissingField), nil
	}
	if players == teams {
		return s.fallback(raw, reasonIdentical), nil
	}

	return query.Decomposition{Players: players, Teams: teams}, nil
}

func (s *Service) fallback(raw, reason string, fields ...zap.Field) query.Decomposition {
	metrics.FallbacksTotal.WithLabelValues(component, reason).Inc()
	s.logger.Warn("Decomposer fell back to the original query",
		append([]zap.Field{zap.String("reason", reason)}, fields...)...,
	)
	return query.Verbatim(raw)
}
