// Package eval measures retrieval quality against a labeled query set.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/pkg/utils"
)

// Sample is one labeled query.
type Sample struct {
	Query       string   `json:"query"`
	RelevantIDs []string `json:"relevant_ids"`
}

// SampleResult is the outcome of one sample.
type SampleResult struct {
	Query     string   `json:"query"`
	Retrieved []string `json:"retrieved"`
	Precision float64  `json:"precision"`
}

// Report aggregates a run. PrecisionAtK is the mean of the per-sample precisions.
type Report struct {
	PrecisionAtK float64        `json:"precision_at_k"`
	Samples      int            `json:"samples"`
	PerSample    []SampleResult `json:"per_sample,omitempty"`
}

// Retriever is the part of the retriever the harness needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error)
}

// LoadDataset reads a JSON array of samples.
func LoadDataset(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	return samples, nil
}

// PrecisionAtK is the fraction of the first k retrieved ids that are relevant; 0 when k is 0.
func PrecisionAtK(retrieved, relevant []string, k int) float64 {
	if k <= 0 {
		return 0
	}
	rel := make(map[string]struct{}, len(relevant))
	for _, id := range relevant {
		rel[id] = struct{}{}
	}
	hits := 0
	for _, id := range retrieved[:min(k, len(retrieved))] {
		if _, ok := rel[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// Harness runs samples against a retriever.
type Harness struct {
	retriever   Retriever
	concurrency int
	logger      *zap.Logger
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithLogger sets a logger for per-sample progress.
func WithLogger(l *zap.Logger) HarnessOption {
	return func(h *Harness) { h.logger = l }
}

// WithConcurrency bounds the number of queries in flight (default 1).
func WithConcurrency(n int) HarnessOption {
	return func(h *Harness) { h.concurrency = n }
}

// NewHarness creates a harness over r.
func NewHarness(r Retriever, opts ...HarnessOption) *Harness {
	h := &Harness{retriever: r, concurrency: 1}
	for _, opt := range opts {
		opt(h)
	}
	if h.concurrency <= 0 {
		h.concurrency = 1
	}
	h.logger = utils.LoggerOrNop(h.logger)
	return h
}

// Run retrieves topK chunks per sample and scores them. Each sample is scored at
// k = min(topK, number retrieved). The first retrieval error aborts the run.
func (h *Harness) Run(ctx context.Context, samples []Sample, topK int) (*Report, error) {
	results := make([]SampleResult, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, s := range samples {
		g.Go(func() error {
			chunks, err := h.retriever.Retrieve(gctx, s.Query, topK)
			if err != nil {
				return fmt.Errorf("sample %d (%q): %w", i, utils.Truncate(s.Query, 40), err)
			}
			ids := models.IDs(chunks)
			p := PrecisionAtK(ids, s.RelevantIDs, min(topK, len(ids)))
			results[i] = SampleResult{Query: s.Query, Retrieved: ids, Precision: p}
			h.logger.Debug("sample scored", zap.Int("sample", i), zap.Float64("precision", p))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Samples: len(results), PerSample: results}
	if len(results) > 0 {
		var sum float64
		for _, r := range results {
			sum += r.Precision
		}
		report.PrecisionAtK = sum / float64(len(results))
	}
	return report, nil
}
