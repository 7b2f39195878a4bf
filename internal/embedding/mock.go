package embedding

import (
	"context"
	"unicode"
)

// MockEmbedder is a deterministic embedder for tests and for running without a model.
// Each non-space rune adds one to bucket rune%dimensions, so texts sharing characters
// are similar and texts sharing none are orthogonal.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a mock embedder of the given dimensions (256 when <= 0).
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &MockEmbedder{dimensions: dimensions}
}

func (e *MockEmbedder) Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dimensions)
		for _, r := range text {
			if unicode.IsSpace(r) {
				continue
			}
			v[int(r)%e.dimensions]++
		}
		if normalize && isZero(v) {
			// Keep whitespace-only input representable.
			v[0] = 1
		}
		out[i] = v
	}
	return finish(out, len(texts), e.dimensions, normalize)
}

func (e *MockEmbedder) Dimensions() int { return e.dimensions }

func (e *MockEmbedder) Model() string { return "mock" }

func (e *MockEmbedder) Close() error { return nil }

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
