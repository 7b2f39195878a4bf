//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/remixer1943/Ai/internal/config"
)

// ONNXEmbedder runs a BERT-style model (e.g. bge-large-zh) with ONNX Runtime and
// pools the [CLS] hidden state. It requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	model      string
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXEmbedder loads the WordPiece vocabulary and creates a session for cfg.ModelPath.
// InitializeEnvironment is called if not already done.
func NewONNXEmbedder(cfg config.EmbeddingConfig) (*ONNXEmbedder, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("onnx embedder needs positive dimensions, got %d", cfg.Dimensions)
	}
	vocab, err := LoadVocab(cfg.VocabPath)
	if err != nil {
		return nil, err
	}
	tokenizer, err := NewWordPieceTokenizer(vocab, true)
	if err != nil {
		return nil, fmt.Errorf("invalid vocab %s: %w", cfg.VocabPath, err)
	}
	outputName := cfg.OutputName
	if outputName == "" {
		outputName = "last_hidden_state"
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	inputIDs, attentionMask, tokenTypeIDs := tokenizer.Tokenize("", cfg.MaxTokens)
	seqLen := int64(len(inputIDs))

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	tokenTypeIDsTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), tokenTypeIDs)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, int64(cfg.Dimensions)))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{outputName},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session for %s: %w", cfg.ModelPath, err)
	}

	model := cfg.Model
	if model == "" {
		model = cfg.ModelPath
	}
	return &ONNXEmbedder{
		session:             session,
		model:               model,
		dimensions:          cfg.Dimensions,
		maxTokens:           cfg.MaxTokens,
		tokenizer:           tokenizer,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		tokenTypeIDsTensor:  tokenTypeIDsTensor,
		outputTensor:        outputTensor,
	}, nil
}

// Embed runs the texts through the session one at a time; the tensors are shared,
// so calls are serialised.
func (e *ONNXEmbedder) Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Tokenize(text, e.maxTokens)
		copy(e.inputIDsTensor.GetData(), inputIDs)
		copy(e.attentionMaskTensor.GetData(), attentionMask)
		copy(e.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

		if err := e.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed for text %d: %w", i, err)
		}

		// Row 0 of the hidden states is the [CLS] position.
		embedding := make([]float32, e.dimensions)
		copy(embedding, e.outputTensor.GetData()[:e.dimensions])
		out[i] = embedding
	}
	return finish(out, len(texts), e.dimensions, normalize)
}

func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

func (e *ONNXEmbedder) Model() string { return e.model }

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputIDsTensor != nil {
		_ = e.inputIDsTensor.Destroy()
		e.inputIDsTensor = nil
	}
	if e.attentionMaskTensor != nil {
		_ = e.attentionMaskTensor.Destroy()
		e.attentionMaskTensor = nil
	}
	if e.tokenTypeIDsTensor != nil {
		_ = e.tokenTypeIDsTensor.Destroy()
		e.tokenTypeIDsTensor = nil
	}
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}
