// Package embedding turns texts into fixed-dimension vectors via a local ONNX model,
// an Ollama server or a deterministic mock.
package embedding

import (
	"context"
	"fmt"

	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/pkg/utils"
)

// Embedder produces vector embeddings for text. The result is index-aligned with texts,
// every vector has Dimensions() entries, and the same input always yields the same output.
// When normalize is true every returned vector has unit L2 norm.
type Embedder interface {
	Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, error)
	Dimensions() int
	Model() string
	Close() error
}

// New returns the embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "onnx":
		return NewONNXEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (supported: onnx, ollama, mock)", cfg.Provider)
	}
}

// finish checks the provider output shape and normalizes in place when asked.
func finish(vectors [][]float32, n, dims int, normalize bool) ([][]float32, error) {
	if len(vectors) != n {
		return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(vectors), n)
	}
	for i, v := range vectors {
		if dims > 0 && len(v) != dims {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), dims)
		}
		if normalize && !utils.NormalizeL2(v) {
			return nil, fmt.Errorf("embedding %d is a zero vector", i)
		}
	}
	return vectors, nil
}
