package query

import (
	"fmt"
	"strings"
)

// SortField is a sortable entity attribute.
type SortField string

// Sortable attributes. Mapping to storage paths is per table.
const (
	SortGoals       SortField = "goals"
	SortAssists     SortField = "assists"
	SortAge         SortField = "age"
	SortHeight      SortField = "height"
	SortAppearances SortField = "appearances"
)

// SortOrder is the ordering direction.
type SortOrder string

const (
	// Asc is used for "least", "youngest", "shortest" phrasing.
	Asc SortOrder = "ASC"
	// Desc is used for "most", "highest", "oldest" phrasing.
	Desc SortOrder = "DESC"
)

// ParseSortField normalizes a sort field name.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortGoals, SortAssists, SortAge, SortHeight, SortAppearances:
		return f, true
	default:
		return "", false
	}
}

// ParseSortOrder normalizes a sort order.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(strings.ToUpper(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, true
	default:
		return "", false
	}
}

// Reverse returns the opposite order.
func (o SortOrder) Reverse() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}

// Sort is a validated sort clause: both field and order are always set.
type Sort struct {
	field SortField
	order SortOrder
}

// NewSort validates and creates a Sort.
func NewSort(field, order string) (Sort, error) {
	f, ok := ParseSortField(field)
	if !ok {
		return Sort{}, fmt.Errorf("unknown sort field %q", field)
	}
	o, ok := ParseSortOrder(order)
	if !ok {
		return Sort{}, fmt.Errorf("unknown sort order %q", order)
	}
	return Sort{field: f, order: o}, nil
}

// Field returns the sort attribute.
func (s Sort) Field() SortField { return s.field }

// Order returns the sort direction.
func (s Sort) Order() SortOrder { return s.order }

// String renders "field ORDER".
func (s Sort) String() string { return string(s.field) + " " + string(s.order) }
