package query

import (
	"sort"
	"strings"
)

// Allow-listed filter attributes.
const (
	AttrLeague      = "league"
	AttrNationality = "nationality"
)

var allowedAttrs = map[string]struct{}{
	AttrLeague:      {},
	AttrNationality: {},
}

// IsAllowedAttr reports whether key may be used as an equality filter.
func IsAllowedAttr(key string) bool {
	_, ok := allowedAttrs[key]
	return ok
}

// Filters is an immutable set of equality constraints restricted to the allow-list.
type Filters struct {
	values map[string]string
}

// NewFilters keeps allow-listed keys with non-empty string values; everything else is
// dropped silently. Keys are matched case-insensitively.
func NewFilters(raw map[string]any) Filters {
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if !IsAllowedAttr(key) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		values[key] = s
	}
	return Filters{values: values}
}

// FiltersFromStrings is NewFilters for string-valued input.
func FiltersFromStrings(raw map[string]string) Filters {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[k] = v
	}
	return NewFilters(m)
}

// Get returns the value for an attribute.
func (f Filters) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the attribute names in sorted order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of constraints.
func (f Filters) Len() int { return len(f.values) }

// IsEmpty reports whether there are no constraints.
func (f Filters) IsEmpty() bool { return len(f.values) == 0 }

// Map returns a copy of the constraints. Never nil.
func (f Filters) Map() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}
