package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inkstack/papyr/internal/embedding"
	"github.com/inkstack/papyr/internal/ingest"
	"github.com/inkstack/papyr/internal/models"
	"github.com/inkstack/papyr/internal/storage"
	"github.com/inkstack/papyr/internal/vector"
)

// chunkSeparator terminates every similarity chunk in the assembled context.
// Page-scoped chunks are joined with blank lines instead and come first.
const chunkSeparator = "\n---\n"

// Generator produces the final answer text for a fully assembled prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// PageExtractor reads the text of a single page of a stored PDF.
type PageExtractor interface {
	ExtractPage(path string, page int) (string, error)
}

// Assembler turns a question into an answer: intent short-circuit first, then
// retrieval context assembly, prompt construction, and generation.
type Assembler struct {
	embedder  embedding.Embedder
	store     vector.Store
	generator Generator
	extractor PageExtractor
	files     *storage.DiskStore
	chunker   *ingest.Chunker
	intents   *Responder
	topK      int
	logger    *zap.Logger // optional
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithLogger sets a logger for retrieval diagnostics.
func WithLogger(l *zap.Logger) AssemblerOption {
	return func(a *Assembler) { a.logger = l }
}

// WithResponder replaces the default intent responder, mainly so tests can pin
// the reply selection.
func WithResponder(r *Responder) AssemblerOption {
	return func(a *Assembler) { a.intents = r }
}

// NewAssembler creates an assembler retrieving topK chunks per question.
func NewAssembler(
	embedder embedding.Embedder,
	store vector.Store,
	generator Generator,
	extractor PageExtractor,
	files *storage.DiskStore,
	chunker *ingest.Chunker,
	topK int,
	opts ...AssemblerOption,
) *Assembler {
	a := &Assembler{
		embedder:  embedder,
		store:     store,
		generator: generator,
		extractor: extractor,
		files:     files,
		chunker:   chunker,
		intents:   NewResponder(),
		topK:      topK,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer resolves req. Greeting and mood questions return a canned reply with
// empty context and zero token estimate, skipping retrieval and generation
// entirely. Everything else goes through context assembly and the generation
// backend; a generation failure fails the whole request.
func (a *Assembler) Answer(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	if reply, ok := a.intents.Match(req.Question); ok {
		return &models.QueryResponse{Answer: reply}, nil
	}

	contextText, tokens, err := a.BuildContext(ctx, req)
	if err != nil {
		return nil, err
	}
	prompt := BuildPrompt(contextText, req.Question)
	answerText, err := a.generator.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &models.QueryResponse{
		Answer:          answerText,
		Context:         contextText,
		EstimatedTokens: tokens,
	}, nil
}

// BuildContext assembles the retrieval context for req and estimates its token
// count. When the request pins a document page, that page's chunks are placed
// first, joined by blank lines; the global top-K similarity chunks follow, each
// terminated by the chunk separator. Page-scoped retrieval never narrows the
// similarity search and degrades silently when the document or page is
// unavailable.
func (a *Assembler) BuildContext(ctx context.Context, req *models.QueryRequest) (string, int, error) {
	var b strings.Builder
	if pageText, ok := a.pageContext(req.DocumentID, req.PageNumber); ok {
		b.WriteString(pageText)
	}

	qvec, err := a.embedder.Embed(ctx, req.Question)
	if err != nil {
		return "", 0, fmt.Errorf("embed question: %w", err)
	}
	matches, err := a.store.Query(ctx, qvec, a.topK)
	if err != nil {
		return "", 0, fmt.Errorf("similarity search: %w", err)
	}
	for _, m := range matches {
		b.WriteString(m.Text)
		b.WriteString(chunkSeparator)
	}
	if a.logger != nil {
		a.logger.Debug("context assembled",
			zap.Int("matches", len(matches)),
			zap.Bool("page_scoped", req.DocumentID != "" && req.PageNumber > 0),
		)
	}

	contextText := b.String()
	return contextText, ingest.EstimateTokens(contextText), nil
}

// pageContext extracts, cleans, and chunks a single page of the named document.
// Any failure (unknown document, page out of range, extraction error, page
// empty after cleaning) returns ok=false so the caller falls back to pure
// similarity context.
func (a *Assembler) pageContext(docID string, page int) (string, bool) {
	if docID == "" || page < 1 {
		return "", false
	}
	if !a.files.Exists(docID) {
		if a.logger != nil {
			a.logger.Debug("page context skipped, unknown document", zap.String("document", docID))
		}
		return "", false
	}
	path, err := a.files.Path(docID)
	if err != nil {
		return "", false
	}
	text, err := a.extractor.ExtractPage(path, page)
	if err != nil {
		if a.logger != nil {
			a.logger.Debug("page context skipped",
				zap.String("document", docID),
				zap.Int("page", page),
				zap.Error(err),
			)
		}
		return "", false
	}
	parts := a.chunker.Split(ingest.Normalize(text))
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n\n"), true
}
