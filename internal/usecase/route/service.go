// Package route decides which entity tables a query concerns.
package route

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/table"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

const component = "router"

const (
	reasonLLMError  = "llm_error"
	reasonUnmatched = "unmatched"
	reasonKeyword   = "keyword_match"
)

const systemPrompt = `You route football questions to database tables.
Tables:
- players: individual footballers (stats, nationality, position, physical attributes, current club).
- teams: clubs (country, league, stadium, founding year, season stats).
- both: the question needs facts about a player AND about a club, e.g. "Which team does Salah play for and where is their stadium?".

Return ONLY a JSON object: {"table": "players"} or {"table": "teams"} or {"table": "both"}.`

var (
	bothKeywords   = []string{"both"}
	teamKeywords   = []string{"team", "club"}
	playerKeywords = []string{"player", "footballer"}
)

type chatModel interface {
	Complete(ctx context.Context, p domain.Prompt) (string, error)
}

// Service is the table router.
type Service struct {
	llm    chatModel
	logger *zap.Logger
}

// New creates a table router.
func New(llm chatModel, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, logger: logger}
}

// Route issues one classification request. Output that names no table yields
// table.RouteUnknown, which callers resolve to players. The only error returned
// is the caller's context being done.
func (s *Service) Route(ctx context.Context, raw string) (table.Route, error) {
	resp, err := s.llm.Complete(ctx, domain.Prompt{
		System: systemPrompt,
		User:   "Question: " + strconv.Quote(raw),
		JSON:   true,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return table.RouteUnknown, fmt.Errorf("route: %w", cerr)
		}
		s.unknown(reasonLLMError, zap.Error(err))
		return table.RouteUnknown, nil
	}

	if r, ok := fromJSON(resp); ok {
		return r, nil
	}

	if r := fromKeywords(resp); r != table.RouteUnknown {
		metrics.FallbacksTotal.WithLabelValues(component, reasonKeyword).Inc()
		s.logger.Debug("Route matched by keyword", zap.String("route", string(r)))
		return r, nil
	}

	s.unknown(reasonUnmatched, zap.String("response", truncate(resp, 200)))
	return table.RouteUnknown, nil
}

func (s *Service) unknown(reason string, fields ...zap.Field) {
	metrics.FallbacksTotal.WithLabelValues(component, reason).Inc()
	s.logger.Warn("Router could not decide, defaulting to players",
		append([]zap.Field{zap.String("reason", reason)}, fields...)...,
	)
}

// fromJSON reads the exact label from a {"table": ...} object.
func fromJSON(resp string) (table.Route, bool) {
	body := domain.StripCodeFence(resp)
	if !gjson.Valid(body) {
		return table.RouteUnknown, false
	}
	label := gjson.Get(body, "table")
	if label.Type != gjson.String {
		return table.RouteUnknown, false
	}
	return table.ParseRoute(label.String())
}

// fromKeywords normalizes free text by substring matching on the lower-cased response.
// A response mentioning both players and teams without the "both" label stays unknown.
func fromKeywords(resp string) table.Route {
	text := strings.ToLower(resp)
	if containsAny(text, bothKeywords) {
		return table.RouteBoth
	}
	teams := containsAny(text, teamKeywords)
	players := containsAny(text, playerKeywords)
	switch {
	case teams && !players:
		return table.RouteTeams
	case players && !teams:
		return table.RoutePlayers
	default:
		return table.RouteUnknown
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
