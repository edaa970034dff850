package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inkstack/papyr/internal/embedding"
	"github.com/inkstack/papyr/internal/extract"
	"github.com/inkstack/papyr/internal/keyword"
	"github.com/inkstack/papyr/internal/models"
	"github.com/inkstack/papyr/internal/storage"
	"github.com/inkstack/papyr/internal/vector"
)

// Ingestor drives the document pipeline: extract pages, normalize, chunk,
// embed, upsert into the vector store. The document ID is the PDF filename.
//
// Re-ingesting a filename overwrites chunks that share an ID with the new run
// but never deletes a longer previous tail, so stale chunks can accumulate.
// That matches the store's additive contract; replace-on-reingest would be a
// behavior change needing product sign-off.
type Ingestor struct {
	chunker   *Chunker
	embedder  embedding.Embedder
	store     vector.Store
	extractor *extract.Extractor
	files     *storage.DiskStore
	keywords  *keyword.Index // optional
	logger    *zap.Logger    // optional
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets a logger for debug events (document ingested, page counts, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(ing *Ingestor) { ing.logger = l }
}

// WithKeywordIndex additionally indexes chunk text for keyword search.
func WithKeywordIndex(idx *keyword.Index) Option {
	return func(ing *Ingestor) { ing.keywords = idx }
}

// NewIngestor creates an ingestor with the given collaborators.
func NewIngestor(
	chunker *Chunker,
	embedder embedding.Embedder,
	store vector.Store,
	extractor *extract.Extractor,
	files *storage.DiskStore,
	opts ...Option,
) *Ingestor {
	ing := &Ingestor{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		extractor: extractor,
		files:     files,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest normalizes and chunks the page texts of one document, embeds the
// chunks, and upserts them as "{docID}_{i}". Pages are joined with a blank
// line so page boundaries survive as paragraph breaks. A document that cleans
// down to nothing is reported as StatusNoContent, not an error, and nothing is
// written. Embedding or store failures are returned and fail the document.
func (ing *Ingestor) Ingest(ctx context.Context, docID string, pages []string) (*models.FileReport, error) {
	cleaned := Normalize(strings.Join(pages, "\n\n"))
	chunks := ing.chunker.Chunk(docID, cleaned)
	if len(chunks) == 0 {
		if ing.logger != nil {
			ing.logger.Warn("no indexable content after cleaning", zap.String("document", docID))
		}
		return &models.FileReport{Filename: docID, Status: models.StatusNoContent}, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks for %s: %w", docID, err)
	}

	entries := make([]vector.Entry, len(chunks))
	for i, ch := range chunks {
		entries[i] = vector.Entry{
			ID:         ch.ID,
			DocumentID: ch.DocumentID,
			Text:       ch.Content,
			Vector:     vectors[i],
		}
	}
	if err := ing.store.Upsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("upsert chunks for %s: %w", docID, err)
	}
	if ing.keywords != nil {
		if err := ing.keywords.IndexChunks(ctx, chunks); err != nil {
			return nil, fmt.Errorf("keyword index chunks for %s: %w", docID, err)
		}
	}
	if ing.logger != nil {
		ing.logger.Info("document indexed",
			zap.String("document", docID),
			zap.Int("pages", len(pages)),
			zap.Int("chunks", len(chunks)),
		)
	}
	return &models.FileReport{Filename: docID, Status: models.StatusIndexed, Chunks: len(chunks)}, nil
}

// IngestFile extracts the PDF at path and ingests it under its base filename.
// Extraction failure is a per-document outcome (StatusExtractionFailed), not
// an error: callers processing a batch continue with the remaining documents.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (*models.FileReport, error) {
	docID := filepath.Base(path)
	pages, err := ing.extractor.ExtractPages(path)
	if err != nil {
		if ing.logger != nil {
			ing.logger.Warn("extraction failed", zap.String("document", docID), zap.Error(err))
		}
		return &models.FileReport{
			Filename: docID,
			Status:   models.StatusExtractionFailed,
			Error:    err.Error(),
		}, nil
	}
	return ing.Ingest(ctx, docID, pages)
}

// IngestUpload persists an uploaded document to the file store under its
// sanitized filename, then extracts and ingests it.
func (ing *Ingestor) IngestUpload(ctx context.Context, filename string, content io.Reader) (*models.FileReport, error) {
	path, err := ing.files.Save(filename, content)
	if err != nil {
		return nil, fmt.Errorf("save upload %s: %w", filename, err)
	}
	return ing.IngestFile(ctx, path)
}
