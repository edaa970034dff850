// Package embedding provides text embedding behind a single interface, with
// local ONNX, remote OpenAI-compatible, and deterministic mock implementations.
package embedding

import (
	"context"
	"fmt"

	"github.com/inkstack/papyr/internal/config"
)

// Embedder produces fixed-dimension vector embeddings for text. All
// implementations return unit-length vectors so that inner product equals
// cosine similarity. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New creates the embedder selected by cfg.Provider. apiKey is used only by
// the remote provider and may be empty for unauthenticated local endpoints.
func New(cfg *config.EmbeddingConfig, apiKey string) (Embedder, error) {
	switch cfg.Provider {
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	case "openai":
		return NewRemoteEmbedder(RemoteConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     apiKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			CacheSize:  cfg.CacheSize,
		})
	case "onnx", "":
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
