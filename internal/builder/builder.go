// Package builder produces a vector store from a chunk collection (the offline phase).
package builder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/embedding"
	"github.com/remixer1943/Ai/internal/knowledge"
	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/storage"
	"github.com/remixer1943/Ai/internal/store"
	"github.com/remixer1943/Ai/pkg/utils"
)

// unitNormTolerance bounds how far a provider vector's norm may stray from 1.
const unitNormTolerance = 1e-3

// Builder embeds chunks into a vector store.
type Builder struct {
	embedder embedding.Embedder
	logger   *zap.Logger
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// New creates a builder that embeds passages with embedder.
func New(embedder embedding.Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{embedder: embedder, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.LoggerOrNop(b.logger)
	return b
}

// Build validates chunks, embeds all texts in one provider call (as passages: no
// instruction prefix, normalized) and returns the resulting store in input order.
// chunks is not modified.
func (b *Builder) Build(ctx context.Context, chunks []models.Chunk) (*store.VectorStore, error) {
	if err := validateInput(chunks); err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	start := b.now()
	b.logger.Info("embedding chunks", zap.Int("chunks", len(chunks)), zap.String("model", b.embedder.Model()))
	vectors, err := b.embedder.Embed(ctx, texts, true)
	if err != nil {
		return nil, models.WrapError(models.KindProviderFailure, err, "embed passages")
	}
	if err := checkVectors(vectors, len(chunks)); err != nil {
		return nil, err
	}

	vs := &store.VectorStore{
		Chunks:     append([]models.Chunk(nil), chunks...),
		Embeddings: vectors,
		Meta: store.Meta{
			BuildID:   uuid.New().String(),
			Model:     b.embedder.Model(),
			CreatedAt: b.now().UTC(),
		},
	}
	b.logger.Info("vector store built",
		zap.String("build_id", vs.Meta.BuildID),
		zap.Int("chunks", vs.Len()),
		zap.Int("dimensions", vs.Dimensions()),
		zap.Duration("took", b.now().Sub(start)),
	)
	return vs, nil
}

// BuildFile loads the knowledge base at kbPath, builds it and saves the store to medium.
func (b *Builder) BuildFile(ctx context.Context, kbPath string, medium storage.Medium) (*store.VectorStore, error) {
	kb, err := knowledge.Load(kbPath)
	if err != nil {
		return nil, models.WrapError(models.KindBuildInput, err, "load knowledge base")
	}
	vs, err := b.Build(ctx, kb.Chunks)
	if err != nil {
		return nil, err
	}
	if err := medium.Save(ctx, vs); err != nil {
		return nil, fmt.Errorf("save vector store to %s: %w", medium.Location(), err)
	}
	b.logger.Info("vector store saved", zap.String("location", medium.Location()))
	return vs, nil
}

func validateInput(chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return models.NewError(models.KindBuildInput, "no chunks to build")
	}
	seen := make(map[string]int, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			return models.NewError(models.KindBuildInput, "chunk at position %d has no id", i)
		}
		if strings.TrimSpace(c.Text) == "" {
			return models.NewError(models.KindBuildInput, "chunk %q has empty text", c.ID)
		}
		if prev, ok := seen[c.ID]; ok {
			return models.NewError(models.KindBuildInput, "duplicate chunk id %q at positions %d and %d", c.ID, prev, i)
		}
		seen[c.ID] = i
	}
	return nil
}

func checkVectors(vectors [][]float32, n int) error {
	if len(vectors) != n {
		return models.NewError(models.KindProviderFailure, "provider returned %d embeddings for %d chunks", len(vectors), n)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return models.NewError(models.KindProviderFailure, "provider returned empty embeddings")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return models.NewError(models.KindProviderFailure, "embedding %d has dimension %d, expected %d", i, len(v), dim)
		}
		if !utils.IsUnitNorm(v, unitNormTolerance) {
			return models.NewError(models.KindProviderFailure, "embedding %d is not unit-normalized", i)
		}
	}
	return nil
}
