//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"

	"github.com/remixer1943/Ai/internal/config"
)

var errNoCGO = errors.New("ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime, or use the ollama provider")

// ONNXEmbedder stub type when built without CGO (see onnx.go for real implementation).
type ONNXEmbedder struct{}

// NewONNXEmbedder returns an error when built without CGO (ONNX not available).
func NewONNXEmbedder(config.EmbeddingConfig) (*ONNXEmbedder, error) {
	return nil, errNoCGO
}

func (e *ONNXEmbedder) Embed(context.Context, []string, bool) ([][]float32, error) {
	return nil, errNoCGO
}

func (e *ONNXEmbedder) Dimensions() int { return 0 }

func (e *ONNXEmbedder) Model() string { return "" }

func (e *ONNXEmbedder) Close() error { return nil }
