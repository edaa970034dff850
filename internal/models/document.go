// Package models defines core data structures for documents, chunks, and queries.
package models

import "time"

// Document represents an uploaded PDF. The original filename is both the storage
// key on disk and the document tag in the vector store.
type Document struct {
	ID        string    `json:"id"`
	Pages     int       `json:"pages,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DocumentChunk is a bounded, overlap-linked segment of a document's cleaned
// text. Its ID is "{document_id}_{index}" where index is the 0-based position
// in the chunk sequence.
type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"-"`
}

// Ingest statuses reported per document.
const (
	// StatusIndexed means chunks were embedded and upserted into the vector store.
	StatusIndexed = "indexed"
	// StatusNoContent means normalization left nothing indexable. Not an error.
	StatusNoContent = "no_content_after_cleaning"
	// StatusExtractionFailed means the PDF could not be parsed. Sibling documents
	// in the same batch are still processed.
	StatusExtractionFailed = "extraction_failed"
)

// FileReport is the per-document outcome of an ingest request.
type FileReport struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}

// IngestResult is the outcome of one ingest invocation over one or more documents.
type IngestResult struct {
	BatchID string       `json:"batch_id"`
	Files   []FileReport `json:"files_status"`
}
