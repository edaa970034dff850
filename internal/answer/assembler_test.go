package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/inkstack/papyr/internal/embedding"
	"github.com/inkstack/papyr/internal/extract"
	"github.com/inkstack/papyr/internal/ingest"
	"github.com/inkstack/papyr/internal/models"
	"github.com/inkstack/papyr/internal/storage"
	"github.com/inkstack/papyr/internal/vector"
)

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (g *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestAssembler(t *testing.T, gen Generator, topK int) (*Assembler, *vector.MemoryStore) {
	t.Helper()
	chunker, err := ingest.NewChunker(300, 50)
	if err != nil {
		t.Fatal(err)
	}
	files, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := vector.NewMemoryStore(8)
	a := NewAssembler(
		embedding.NewMockEmbedder(8), store, gen,
		extract.NewExtractor(), files, chunker, topK,
	)
	return a, store
}

func seedChunks(t *testing.T, store *vector.MemoryStore, docID string, texts []string) {
	t.Helper()
	embedder := embedding.NewMockEmbedder(8)
	entries := make([]vector.Entry, len(texts))
	for i, text := range texts {
		vec, err := embedder.Embed(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		entries[i] = vector.Entry{
			ID:         docID + "_" + string(rune('0'+i)),
			DocumentID: docID,
			Text:       text,
			Vector:     vec,
		}
	}
	if err := store.Upsert(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
}

func TestAnswerShortCircuitsGreetings(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	a, _ := newTestAssembler(t, gen, 5)
	a.intents = NewResponderWithPick(func(n int) int { return 0 })

	resp, err := a.Answer(context.Background(), &models.QueryRequest{Question: "Hi!"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != greetingReplies[0] {
		t.Errorf("answer: got %q", resp.Answer)
	}
	if resp.Context != "" {
		t.Errorf("context must be empty, got %q", resp.Context)
	}
	if resp.EstimatedTokens != 0 {
		t.Errorf("estimated tokens: got %d, want 0", resp.EstimatedTokens)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times on a greeting", gen.calls)
	}
}

func TestAnswerAssemblesContextAndPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: "Grounded answer."}
	a, store := newTestAssembler(t, gen, 5)
	seedChunks(t, store, "paper.pdf", []string{
		"Chunking splits text into overlapping windows.",
		"Embeddings map text into a vector space.",
	})

	question := "How does chunking work?"
	resp, err := a.Answer(context.Background(), &models.QueryRequest{Question: question})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "Grounded answer." {
		t.Errorf("answer: got %q", resp.Answer)
	}
	if strings.Count(resp.Context, chunkSeparator) != 2 {
		t.Errorf("expected 2 chunk separators, got %d in %q",
			strings.Count(resp.Context, chunkSeparator), resp.Context)
	}
	if !strings.HasSuffix(resp.Context, chunkSeparator) {
		t.Errorf("context must end with the separator: %q", resp.Context)
	}
	if resp.EstimatedTokens != ingest.EstimateTokens(resp.Context) {
		t.Errorf("token estimate %d does not match context", resp.EstimatedTokens)
	}
	if !strings.Contains(gen.lastPrompt, resp.Context) {
		t.Error("prompt does not contain the assembled context")
	}
	if !strings.Contains(gen.lastPrompt, question) {
		t.Error("prompt does not contain the question")
	}
}

func TestAnswerLimitsMatchesToTopK(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	a, store := newTestAssembler(t, gen, 3)
	texts := make([]string, 7)
	for i := range texts {
		texts[i] = strings.Repeat("distinct content ", i+1) + "tail"
	}
	seedChunks(t, store, "big.pdf", texts)

	resp, err := a.Answer(context.Background(), &models.QueryRequest{Question: "anything relevant"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(resp.Context, chunkSeparator); got != 3 {
		t.Errorf("expected 3 chunks in context, got %d", got)
	}
}

func TestAnswerGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend unreachable")}
	a, store := newTestAssembler(t, gen, 5)
	seedChunks(t, store, "doc.pdf", []string{"Some indexed content here."})

	if _, err := a.Answer(context.Background(), &models.QueryRequest{Question: "a real question"}); err == nil {
		t.Fatal("expected error when generation fails")
	}
}

type fakePageExtractor struct {
	text     string
	err      error
	lastPath string
	lastPage int
}

func (f *fakePageExtractor) ExtractPage(path string, page int) (string, error) {
	f.lastPath, f.lastPage = path, page
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestAnswerPageScopedChunksComeFirst(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	chunker, err := ingest.NewChunker(40, 10)
	if err != nil {
		t.Fatal(err)
	}
	files, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := files.Save("manual.pdf", strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatal(err)
	}
	store := vector.NewMemoryStore(8)
	seedChunks(t, store, "manual.pdf", []string{
		"Similarity chunk one.",
		"Similarity chunk two.",
	})

	pageText := "Troubleshooting starts with checking the power supply and the cable seating before anything else."
	ext := &fakePageExtractor{text: pageText + "\n"}
	a := NewAssembler(embedding.NewMockEmbedder(8), store, gen, ext, files, chunker, 5)

	resp, err := a.Answer(context.Background(), &models.QueryRequest{
		Question:   "where does troubleshooting start",
		DocumentID: "manual.pdf",
		PageNumber: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ext.lastPage != 2 {
		t.Errorf("extractor asked for page %d, want 2", ext.lastPage)
	}
	wantPath, _ := files.Path("manual.pdf")
	if ext.lastPath != wantPath {
		t.Errorf("extractor path: got %q, want %q", ext.lastPath, wantPath)
	}

	if !strings.HasPrefix(resp.Context, "Troubleshooting") {
		t.Fatalf("context must begin with the page content: %q", resp.Context)
	}
	sepIdx := strings.Index(resp.Context, chunkSeparator)
	if sepIdx < 0 {
		t.Fatalf("similarity chunks missing from context: %q", resp.Context)
	}
	pageBlock := resp.Context[:sepIdx]
	if !strings.Contains(pageBlock, "anything else.") {
		t.Errorf("page content must fully precede the first separator: %q", resp.Context)
	}
	if !strings.Contains(pageBlock, "\n\n") {
		t.Errorf("page chunks must be joined by blank lines: %q", pageBlock)
	}
	if !strings.Contains(resp.Context[sepIdx:], "Similarity chunk") {
		t.Errorf("similarity chunks must follow the page block: %q", resp.Context)
	}
}

func TestAnswerPageExtractionErrorDegradesSilently(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	chunker, err := ingest.NewChunker(300, 50)
	if err != nil {
		t.Fatal(err)
	}
	files, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := files.Save("broken.pdf", strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatal(err)
	}
	store := vector.NewMemoryStore(8)
	seedChunks(t, store, "broken.pdf", []string{"Indexed content."})

	ext := &fakePageExtractor{err: errors.New("page out of range")}
	a := NewAssembler(embedding.NewMockEmbedder(8), store, gen, ext, files, chunker, 5)

	resp, err := a.Answer(context.Background(), &models.QueryRequest{
		Question:   "what is on this page",
		DocumentID: "broken.pdf",
		PageNumber: 99,
	})
	if err != nil {
		t.Fatalf("extraction failure must not fail the request: %v", err)
	}
	if strings.Contains(resp.Context, "\n\n") || !strings.Contains(resp.Context, "Indexed content.") {
		t.Errorf("expected similarity-only context, got %q", resp.Context)
	}
}

func TestAnswerUnknownDocumentPageDegradesSilently(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	a, store := newTestAssembler(t, gen, 5)
	seedChunks(t, store, "doc.pdf", []string{"Indexed content."})

	resp, err := a.Answer(context.Background(), &models.QueryRequest{
		Question:   "what is on this page",
		DocumentID: "never-uploaded.pdf",
		PageNumber: 3,
	})
	if err != nil {
		t.Fatalf("invalid page reference must not fail the request: %v", err)
	}
	if !strings.Contains(resp.Context, "Indexed content.") {
		t.Errorf("similarity context missing: %q", resp.Context)
	}
}

func TestAnswerEmptyCorpus(t *testing.T) {
	gen := &fakeGenerator{reply: "Not specified in the documents."}
	a, _ := newTestAssembler(t, gen, 5)

	resp, err := a.Answer(context.Background(), &models.QueryRequest{Question: "anything at all"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Context != "" {
		t.Errorf("context should be empty with no indexed documents, got %q", resp.Context)
	}
	if gen.calls != 1 {
		t.Errorf("generator should still run on an empty corpus, calls=%d", gen.calls)
	}
}

func TestBuildPromptOrdering(t *testing.T) {
	contextText := "CONTEXT-MARKER"
	question := "QUESTION-MARKER"
	prompt := BuildPrompt(contextText, question)

	ci := strings.Index(prompt, contextText)
	qi := strings.Index(prompt, question)
	if ci < 0 || qi < 0 {
		t.Fatal("prompt missing context or question")
	}
	if ci > qi {
		t.Error("context must precede the question in the prompt")
	}
	if !strings.Contains(prompt, "Not specified in the documents.") {
		t.Error("prompt missing the not-found rule")
	}
	if !strings.Contains(prompt, "Question not related to the provided documents.") {
		t.Error("prompt missing the unrelated-question rule")
	}
}
