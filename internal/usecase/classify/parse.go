package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/footrag/internal/domain"
	"github.com/kailas-cloud/footrag/internal/domain/query"
)

// Fallback and adjustment reasons reported in footrag_fallbacks_total.
const (
	reasonLLMError           = "llm_error"
	reasonParse              = "parse_error"
	reasonSchema             = "schema_violation"
	reasonUnknownStrategy    = "unknown_strategy"
	reasonRankingWithoutSort = "ranking_without_sort"
	reasonSemanticFilters    = "semantic_with_filters"
	reasonNoFilters          = "filters_only_without_filters"
)

type parseError struct {
	reason string
	err    error
}

func (e *parseError) Error() string { return e.reason + ": " + e.err.Error() }

func (e *parseError) Unwrap() error { return e.err }

type rawSort struct {
	Field *string `json:"field"`
	Order *string `json:"order"`
}

type rawIntent struct {
	Strategy string         `json:"strategy"`
	Filters  map[string]any `json:"filters"`
	Sort     *rawSort       `json:"sort"`
}

// parse turns a model response into an Intent. When the response is usable but
// inconsistent, the returned intent is adjusted and adjusted names the correction.
func parse(raw, resp string) (intent query.Intent, adjusted string, err error) {
	body := domain.StripCodeFence(resp)

	violations, err := validate(body)
	if err != nil {
		return query.Intent{}, "", &parseError{reason: reasonParse, err: err}
	}
	if len(violations) > 0 {
		return query.Intent{}, "", &parseError{
			reason: reasonSchema,
			err:    fmt.Errorf("%s", strings.Join(violations, "; ")),
		}
	}

	var ri rawIntent
	if err := json.Unmarshal([]byte(body), &ri); err != nil {
		return query.Intent{}, "", &parseError{reason: reasonParse, err: err}
	}

	strategy, ok := query.ParseStrategy(ri.Strategy)
	if !ok {
		return query.Intent{}, "", &parseError{
			reason: reasonUnknownStrategy,
			err:    fmt.Errorf("strategy %q", ri.Strategy),
		}
	}
	filters := query.NewFilters(ri.Filters)

	var srt *query.Sort
	if strategy.NeedsSort() {
		s, serr := sortOf(ri.Sort)
		if serr != nil {
			strategy, adjusted = query.Hybrid, reasonRankingWithoutSort
		} else {
			srt = &s
		}
	}

	switch {
	case strategy == query.Semantic && !filters.IsEmpty():
		strategy, adjusted = query.Hybrid, reasonSemanticFilters
	case strategy == query.FiltersOnly && filters.IsEmpty():
		strategy, adjusted = query.Hybrid, reasonNoFilters
	}

	intent, err = query.NewIntent(raw, strategy, filters, srt)
	if err != nil {
		return query.Intent{}, "", &parseError{reason: reasonParse, err: err}
	}
	return intent, adjusted, nil
}

func sortOf(rs *rawSort) (query.Sort, error) {
	if rs == nil || rs.Field == nil || rs.Order == nil {
		return query.Sort{}, fmt.Errorf("sort field and order are required")
	}
	return query.NewSort(*rs.Field, *rs.Order)
}
