// Package store defines the vector store artifact shared by the builder and the retriever,
// and its private binary serialization.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/remixer1943/Ai/internal/models"
)

// Meta describes how a store was produced.
type Meta struct {
	BuildID   string
	Model     string
	CreatedAt time.Time
}

// VectorStore holds chunks and their embeddings, index-aligned: Embeddings[i] belongs to Chunks[i].
// It is treated as immutable once built or loaded.
type VectorStore struct {
	Chunks     []models.Chunk
	Embeddings [][]float32
	Meta       Meta
}

// Len returns the number of chunks.
func (s *VectorStore) Len() int {
	return len(s.Chunks)
}

// Dimensions returns the embedding dimension, or 0 for an empty store.
func (s *VectorStore) Dimensions() int {
	if len(s.Embeddings) == 0 {
		return 0
	}
	return len(s.Embeddings[0])
}

// Validate checks the alignment and shape invariants: one embedding per chunk,
// all embeddings of the same non-zero dimension, unique ids, non-empty texts.
func (s *VectorStore) Validate() error {
	if len(s.Chunks) != len(s.Embeddings) {
		return fmt.Errorf("alignment mismatch: %d chunks, %d embeddings", len(s.Chunks), len(s.Embeddings))
	}
	dim := s.Dimensions()
	if len(s.Embeddings) > 0 && dim == 0 {
		return fmt.Errorf("embedding 0 is empty")
	}
	seen := make(map[string]int, len(s.Chunks))
	for i, c := range s.Chunks {
		if len(s.Embeddings[i]) != dim {
			return fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(s.Embeddings[i]), dim)
		}
		if c.ID == "" {
			return fmt.Errorf("chunk %d has no id", i)
		}
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("chunk %q has empty text", c.ID)
		}
		if prev, ok := seen[c.ID]; ok {
			return fmt.Errorf("duplicate chunk id %q at positions %d and %d", c.ID, prev, i)
		}
		seen[c.ID] = i
	}
	return nil
}
