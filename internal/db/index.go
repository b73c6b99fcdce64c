package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance; 1 - distance is the similarity.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceIP is inner product.
	DistanceIP DistanceMetric = "IP"
)

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a tag field.
	IndexFieldTag
	// IndexFieldVector is an HNSW vector field.
	IndexFieldVector
)

// VectorParams configures an HNSW vector field.
type VectorParams struct {
	Dim         int
	Distance    DistanceMetric
	M           int // max edges per node, 0 keeps the server default
	EFConstruct int // build-time candidate list size, 0 keeps the server default
}

// IndexField is one JSONPath indexed under an alias.
type IndexField struct {
	Name     string // JSONPath
	Alias    string // queried as @Alias
	Type     IndexFieldType
	Sortable bool // NUMERIC only
	Vector   VectorParams
}

// IndexDefinition is an FT.CREATE ... ON JSON definition.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	vectors := 0
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field path is required at index %d", i)
		}
		if f.Alias == "" {
			return fmt.Errorf("field %s: alias is required on JSON indexes", f.Name)
		}
		if seen[f.Alias] {
			return errors.New("duplicate field alias: " + f.Alias)
		}
		seen[f.Alias] = true

		if f.Sortable && f.Type != IndexFieldNumeric {
			return fmt.Errorf("field %s: only NUMERIC fields are sortable", f.Alias)
		}
		if f.Type == IndexFieldVector {
			vectors++
			if f.Vector.Dim <= 0 {
				return errors.New("vector field requires positive DIM")
			}
		}
	}
	if vectors > 1 {
		return errors.New("at most one vector field per index")
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
