// Package entity defines the documents returned by the datastore.
package entity

import (
	"encoding/json"

	"github.com/kailas-cloud/footrag/internal/domain/table"
)

// Reserved response keys added on top of the record's own attributes.
const (
	KeySourceTable = "source_table"
	KeySimilarity  = "similarity"
	KeyMetadata    = "metadata"
)

// Document is one retrieved entity record. Read-only once constructed.
type Document struct {
	table      table.Name
	id         string
	attributes map[string]any
	metadata   map[string]any
	score      *float64
}

// New creates a document. attributes must not contain the embedding.
func New(src table.Name, id string, attributes, metadata map[string]any, score *float64) Document {
	if attributes == nil {
		attributes = map[string]any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Document{table: src, id: id, attributes: attributes, metadata: metadata, score: score}
}

// Table returns the source table.
func (d Document) Table() table.Name { return d.table }

// ID returns the record key within its table.
func (d Document) ID() string { return d.id }

// Attributes returns the top-level attributes (excluding metadata).
func (d Document) Attributes() map[string]any { return d.attributes }

// Metadata returns the nested metadata mapping.
func (d Document) Metadata() map[string]any { return d.metadata }

// Score returns the similarity score, nil for non-vector lookups.
func (d Document) Score() *float64 { return d.score }

// Flatten returns the record as one mapping: attributes, metadata, provenance and score.
func (d Document) Flatten() map[string]any {
	out := make(map[string]any, len(d.attributes)+3)
	for k, v := range d.attributes {
		out[k] = v
	}
	out[KeyMetadata] = d.metadata
	out[KeySourceTable] = string(d.table)
	if d.score != nil {
		out[KeySimilarity] = *d.score
	}
	return out
}

// MarshalJSON encodes the flattened record.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Flatten())
}
