package ingest

import (
	"fmt"
	"strings"

	"github.com/inkstack/papyr/internal/models"
)

// Chunker splits text into overlapping character-bounded segments, preferring
// to split on a space near the size limit so words stay intact.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. chunkSize and overlap are in characters and
// must satisfy 0 < overlap < chunkSize.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap <= 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in (0, %d), got %d", chunkSize, overlap)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split returns the chunk texts for text, in order. Each chunk is at most
// chunkSize characters; consecutive chunks share up to overlap characters.
// When no space falls in the second half of the window the split is forced at
// chunkSize, accepting a mid-word cut over a chunk under half the target size.
// Whitespace-only chunks are dropped.
//
// The window walk is iterative on runes: recursion depth would grow with
// document length, and a forced split must never land inside a UTF-8 sequence.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > c.chunkSize {
		splitAt := lastSpaceBefore(runes, c.chunkSize)
		if splitAt < c.chunkSize/2 {
			splitAt = c.chunkSize
		}
		if trimmed := strings.TrimSpace(string(runes[:splitAt])); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		next := splitAt - c.overlap
		if next < 1 {
			// Degenerate overlap configuration; force progress.
			next = splitAt
		}
		runes = runes[next:]
	}
	if trimmed := strings.TrimSpace(string(runes)); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// Chunk splits text and wraps each segment as a DocumentChunk with ID
// "{docID}_{i}", i being the 0-based position in the sequence.
func (c *Chunker) Chunk(docID, text string) []*models.DocumentChunk {
	parts := c.Split(text)
	chunks := make([]*models.DocumentChunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, &models.DocumentChunk{
			ID:         fmt.Sprintf("%s_%d", docID, i),
			DocumentID: docID,
			Content:    part,
			ChunkIndex: i,
		})
	}
	return chunks
}

// lastSpaceBefore returns the index of the last space in runes[:limit], or -1.
func lastSpaceBefore(runes []rune, limit int) int {
	for i := limit - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
