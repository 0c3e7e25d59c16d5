package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// TimeLayout encodes timestamps with a fixed-width fraction. RFC3339Nano
// drops trailing zeros, which breaks lexicographic ordering of encoded
// fields; a fixed width keeps string order equal to chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Document is the unit of storage. Adapters treat it as an opaque set of
// fields; merge-writes apply only the supplied fields.
type Document map[string]any

// Filter is an equality constraint on a document field.
type Filter struct {
	Field string
	Value any
}

// Query bounds a collection scan.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Store abstracts a document collection with per-document atomic merge-write.
// No cross-document transactions are offered; callers must stay correct under
// interleaved writes.
type Store interface {
	// Get fetches a document by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, collection, id string) (Document, error)
	// MergeWrite updates only the supplied fields of the document, creating
	// it when absent. Fields not present in the write are preserved.
	MergeWrite(ctx context.Context, collection, id string, fields Document) error
	// Insert appends a document under a generated id and returns the id.
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	// Query returns documents matching all filters, each with its id under
	// the "id" field.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
}
