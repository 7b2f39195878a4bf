// Package retriever answers queries against a loaded vector store (the online phase).
package retriever

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/internal/embedding"
	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/storage"
	"github.com/remixer1943/Ai/internal/store"
	"github.com/remixer1943/Ai/internal/vector"
	"github.com/remixer1943/Ai/pkg/utils"
)

// loaded is everything installed by a successful Load. It is never modified afterwards.
type loaded struct {
	store    *store.VectorStore
	index    *vector.FlatIndex
	location string
}

// Retriever embeds queries and ranks the loaded store by similarity.
// It starts uninitialized and becomes ready after the first successful Load.
// Retrieve is safe for concurrent use and takes no locks.
type Retriever struct {
	embedder    embedding.Embedder
	instruction string
	logger      *zap.Logger

	mu    sync.Mutex // serialises Load
	state atomic.Pointer[loaded]
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for load and query events.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// WithQueryInstruction overrides the prefix prepended to every query before embedding.
func WithQueryInstruction(s string) RetrieverOption {
	return func(r *Retriever) { r.instruction = s }
}

// New creates an uninitialized retriever. Queries are embedded with embedder, which
// must be the model (or an equivalent of it) that built the store.
func New(embedder embedding.Embedder, opts ...RetrieverOption) *Retriever {
	r := &Retriever{embedder: embedder, instruction: config.DefaultQueryInstruction}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.LoggerOrNop(r.logger)
	return r
}

// Load reads and validates the store from src and makes the retriever ready.
// Once ready, further calls return nil without reading src again. On failure the
// retriever stays uninitialized and the error has kind LoadFailure.
func (r *Retriever) Load(ctx context.Context, src storage.Source) error {
	if r.Ready() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Ready() {
		return nil
	}

	start := time.Now()
	vs, err := src.Load(ctx)
	if err != nil {
		return models.WrapError(models.KindLoadFailure, err, "load vector store from "+src.Location())
	}
	if err := vs.Validate(); err != nil {
		return models.WrapError(models.KindLoadFailure, err, "invalid vector store at "+src.Location())
	}
	if want := r.embedder.Dimensions(); vs.Len() > 0 && want > 0 && vs.Dimensions() != want {
		return models.NewError(models.KindLoadFailure,
			"vector store at %s has dimension %d but embedder %s produces %d",
			src.Location(), vs.Dimensions(), r.embedder.Model(), want)
	}
	index, err := vector.NewFlatIndex(vs.Embeddings)
	if err != nil {
		return models.WrapError(models.KindLoadFailure, err, "index vector store")
	}

	r.state.Store(&loaded{store: vs, index: index, location: src.Location()})
	r.logger.Info("vector store loaded",
		zap.String("location", src.Location()),
		zap.String("build_id", vs.Meta.BuildID),
		zap.String("model", vs.Meta.Model),
		zap.Int("chunks", vs.Len()),
		zap.Int("dimensions", vs.Dimensions()),
		zap.Duration("took", time.Since(start)),
	)
	if vs.Meta.Model != "" && vs.Meta.Model != r.embedder.Model() {
		r.logger.Warn("vector store was built with a different model",
			zap.String("store_model", vs.Meta.Model),
			zap.String("query_model", r.embedder.Model()),
		)
	}
	return nil
}

// Ready reports whether a store has been loaded.
func (r *Retriever) Ready() bool {
	return r.state.Load() != nil
}

// Retrieve returns the topK chunks most similar to query, highest score first.
// topK larger than the store is capped at the store size.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error) {
	st := r.state.Load()
	if st == nil {
		return nil, models.NewError(models.KindNotReady, "vector store not loaded")
	}
	if strings.TrimSpace(query) == "" {
		return nil, models.NewError(models.KindInvalidQuery, "query is required")
	}
	if topK <= 0 {
		return nil, models.NewError(models.KindInvalidQuery, "top_k must be positive, got %d", topK)
	}

	vectors, err := r.embedder.Embed(ctx, []string{r.instruction + query}, true)
	if err != nil {
		return nil, models.WrapError(models.KindProviderFailure, err, "embed query")
	}
	if len(vectors) != 1 {
		return nil, models.NewError(models.KindProviderFailure, "provider returned %d embeddings for one query", len(vectors))
	}
	hits, err := st.index.Search(vectors[0], topK)
	if err != nil {
		return nil, models.WrapError(models.KindProviderFailure, err, "score query")
	}

	results := make([]models.RetrievalResult, len(hits))
	for i, h := range hits {
		c := st.store.Chunks[h.Index]
		results[i] = models.RetrievalResult{ID: c.ID, Text: c.Text, Source: c.Source, Score: h.Score}
	}
	r.logger.Debug("retrieved",
		zap.String("query", utils.Truncate(query, 80)),
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Stats describes the loaded store.
type Stats struct {
	Ready      bool      `json:"ready"`
	Chunks     int       `json:"chunks"`
	Dimensions int       `json:"dimensions"`
	BuildID    string    `json:"build_id,omitempty"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	Location   string    `json:"location,omitempty"`
}

// Stats returns a snapshot of the loaded store; zero values when not ready.
func (r *Retriever) Stats() Stats {
	st := r.state.Load()
	if st == nil {
		return Stats{}
	}
	return Stats{
		Ready:      true,
		Chunks:     st.store.Len(),
		Dimensions: st.store.Dimensions(),
		BuildID:    st.store.Meta.BuildID,
		Model:      st.store.Meta.Model,
		CreatedAt:  st.store.Meta.CreatedAt,
		Location:   st.location,
	}
}
