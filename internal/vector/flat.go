// Package vector provides similarity functions and an exact brute-force index over unit-normalized embeddings.
package vector

import (
	"fmt"
	"sort"
)

// Hit is one scored row of a FlatIndex. Index is the row position in the indexed slice.
type Hit struct {
	Index int
	Score float64
}

// FlatIndex scores a query against every stored vector (full linear scan, O(N*d)).
// It never copies or mutates the vectors it was built from, so it is safe for
// concurrent Search calls as long as the caller does not modify them.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
}

// NewFlatIndex wraps vectors, which must all share the same non-zero dimension.
func NewFlatIndex(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return &FlatIndex{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("vector 0 is empty")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector dimension mismatch at row %d: got %d, expected %d", i, len(v), dim)
		}
	}
	return &FlatIndex{dimensions: dim, vectors: vectors}, nil
}

// Dimensions returns the dimension of the indexed vectors (0 for an empty index).
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Size returns the number of indexed vectors.
func (f *FlatIndex) Size() int {
	return len(f.vectors)
}

// Scores returns the inner product of query with every row, in row order.
func (f *FlatIndex) Scores(query []float32) ([]float64, error) {
	if len(f.vectors) > 0 && len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	scores := make([]float64, len(f.vectors))
	for i, vec := range f.vectors {
		var dot float64
		for j := range vec {
			dot += float64(query[j]) * float64(vec[j])
		}
		scores[i] = dot
	}
	return scores, nil
}

// Search returns the top-k rows by inner product, highest first. Rows with equal
// scores keep their original order, so repeated searches return identical results.
// k larger than Size is capped; k <= 0 returns nothing.
func (f *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	scores, err := f.Scores(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 || len(scores) == 0 {
		return nil, nil
	}
	return TopK(scores, k), nil
}

// TopK selects the k highest scores, ties broken by lower index.
func TopK(scores []float64, k int) []Hit {
	hits := make([]Hit, len(scores))
	for i, s := range scores {
		hits[i] = Hit{Index: i, Score: s}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}
