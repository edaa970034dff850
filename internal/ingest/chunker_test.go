package ingest

import (
	"strings"
	"testing"
)

func TestNewChunkerValidation(t *testing.T) {
	if _, err := NewChunker(0, 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := NewChunker(100, 0); err == nil {
		t.Error("expected error for zero overlap")
	}
	if _, err := NewChunker(100, 100); err == nil {
		t.Error("expected error for overlap == chunk size")
	}
	if _, err := NewChunker(100, 150); err == nil {
		t.Error("expected error for overlap > chunk size")
	}
	if _, err := NewChunker(300, 50); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestSplitShortText(t *testing.T) {
	c, _ := NewChunker(300, 50)
	chunks := c.Split("a short text")
	if len(chunks) != 1 || chunks[0] != "a short text" {
		t.Errorf("got %v", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	c, _ := NewChunker(300, 50)
	if chunks := c.Split(""); len(chunks) != 0 {
		t.Errorf("empty: got %v", chunks)
	}
	if chunks := c.Split("   \n  "); len(chunks) != 0 {
		t.Errorf("whitespace: got %v", chunks)
	}
}

func TestSplitForcedBreakWithoutSpaces(t *testing.T) {
	c, _ := NewChunker(300, 50)
	chunks := c.Split(strings.Repeat("A", 500))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 300 {
		t.Errorf("first chunk: got %d chars, want 300", len(chunks[0]))
	}
	if len(chunks[1]) != 250 {
		t.Errorf("second chunk: got %d chars, want 250", len(chunks[1]))
	}
}

func TestSplitBoundsAndCoverage(t *testing.T) {
	c, _ := NewChunker(100, 20)
	text := strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 30))
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len([]rune(ch)) > 100 {
			t.Errorf("chunk %d exceeds size: %d runes", i, len([]rune(ch)))
		}
		if !strings.Contains(text, ch) {
			t.Errorf("chunk %d is not a substring of the input", i)
		}
	}
}

func TestSplitOverlapSharesText(t *testing.T) {
	c, _ := NewChunker(100, 20)
	text := strings.TrimSpace(strings.Repeat("alpha beta gamma delta epsilon ", 20))
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.Fields(chunks[i])[0]
		if !strings.Contains(chunks[i-1], firstWord) {
			t.Errorf("chunk %d does not overlap with chunk %d", i, i-1)
		}
	}
}

func TestSplitPrefersSpaceBoundary(t *testing.T) {
	c, _ := NewChunker(20, 5)
	chunks := c.Split("first second third fourth fifth")
	for i, ch := range chunks {
		if strings.HasPrefix(ch, " ") || strings.HasSuffix(ch, " ") {
			t.Errorf("chunk %d not trimmed: %q", i, ch)
		}
	}
}

func TestSplitMultibyteSafe(t *testing.T) {
	c, _ := NewChunker(10, 3)
	text := strings.Repeat("日本語テキスト", 10)
	for i, ch := range c.Split(text) {
		if !strings.Contains(text, ch) {
			t.Errorf("chunk %d corrupted: %q", i, ch)
		}
	}
}

func TestChunkAssignsSequentialIDs(t *testing.T) {
	c, _ := NewChunker(300, 50)
	chunks := c.Chunk("paper.pdf", strings.Repeat("B", 500))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		wantID := "paper.pdf_" + string(rune('0'+i))
		if ch.ID != wantID {
			t.Errorf("chunk %d ID: got %q, want %q", i, ch.ID, wantID)
		}
		if ch.DocumentID != "paper.pdf" {
			t.Errorf("chunk %d document: got %q", i, ch.DocumentID)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d index: got %d", i, ch.ChunkIndex)
		}
	}
}

func TestChunkEmptyText(t *testing.T) {
	c, _ := NewChunker(300, 50)
	if chunks := c.Chunk("doc.pdf", ""); len(chunks) != 0 {
		t.Errorf("got %d chunks for empty text", len(chunks))
	}
}
