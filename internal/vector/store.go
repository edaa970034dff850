// Package vector provides chunk-level vector storage and similarity search.
package vector

import "context"

// Entry is one chunk to upsert: its stable ID ("{document_id}_{index}"), the
// owning document, the chunk text, and its embedding.
type Entry struct {
	ID         string
	DocumentID string
	Text       string
	Vector     []float32
}

// Match is a single similarity hit, most-similar first. Score is the inner
// product of unit-length vectors (cosine similarity).
type Match struct {
	ID       string
	Text     string
	Metadata map[string]string
	Score    float64
}

// Store persists chunk embeddings and answers nearest-neighbor queries.
// Upserting an existing ID replaces that entry; entries are otherwise only
// removed by external deletion. Implementations must be safe for concurrent use.
type Store interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, k int) ([]*Match, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// metadataKeyDocument tags every stored chunk with its owning document.
const metadataKeyDocument = "pdf_id"
