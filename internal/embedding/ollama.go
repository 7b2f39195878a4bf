package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaEmbedder calls the /api/embed endpoint of an Ollama server with the whole batch.
type OllamaEmbedder struct {
	client     *api.Client
	model      string
	dimensions int
}

// NewOllamaEmbedder creates a client for rawURL. dimensions is the expected vector size of model.
func NewOllamaEmbedder(rawURL, model string, dimensions int) (*OllamaEmbedder, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama embedder needs a model name")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("ollama embedder needs positive dimensions, got %d", dimensions)
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q", rawURL)
	}
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	return &OllamaEmbedder{
		client:     api.NewClient(u, httpClient),
		model:      model,
		dimensions: dimensions,
	}, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return finish(resp.Embeddings, len(texts), e.dimensions, normalize)
}

func (e *OllamaEmbedder) Dimensions() int { return e.dimensions }

func (e *OllamaEmbedder) Model() string { return e.model }

func (e *OllamaEmbedder) Close() error { return nil }
