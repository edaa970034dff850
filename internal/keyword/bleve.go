// Package keyword provides a Bleve index over document chunks for exact-word
// search, complementing the semantic retrieval path.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/inkstack/papyr/internal/models"
)

// Index is a Bleve-backed keyword index keyed by chunk ID.
type Index struct {
	index bleve.Index
}

// chunkDoc is the shape indexed per chunk.
type chunkDoc struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
}

// NewIndex creates or opens a Bleve index at path. An existing index is opened
// and reused; remove the directory to force a full re-index after a mapping change.
func NewIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open keyword index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query term
	// matches the exact word that appears in the chunk.
	contentMapping := bleve.NewTextFieldMapping()
	contentMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", contentMapping)
	docMapping.AddFieldMappingsAt("document_id", bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	return &Index{index: index}, nil
}

// IndexChunks indexes chunks in one batch, keyed by chunk ID. Re-indexing an
// existing ID replaces the previous entry.
func (i *Index) IndexChunks(ctx context.Context, chunks []*models.DocumentChunk) error {
	batch := i.index.NewBatch()
	for _, ch := range chunks {
		if err := batch.Index(ch.ID, chunkDoc{DocumentID: ch.DocumentID, Content: ch.Content}); err != nil {
			return fmt.Errorf("batch chunk %s: %w", ch.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("keyword batch index failed: %w", err)
	}
	return nil
}

// Search runs a match query over chunk content and returns up to limit hits
// with highlighted fragments.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]*models.KeywordHit, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"document_id"}
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("content")

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	hits := make([]*models.KeywordHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		out := &models.KeywordHit{ChunkID: hit.ID, Score: hit.Score}
		if docID, ok := hit.Fields["document_id"].(string); ok {
			out.DocumentID = docID
		}
		if frags, ok := hit.Fragments["content"]; ok && len(frags) > 0 {
			out.Fragment = frags[0]
		}
		hits = append(hits, out)
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the underlying index.
func (i *Index) Close() error {
	return i.index.Close()
}
