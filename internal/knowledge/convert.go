package knowledge

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/remixer1943/Ai/internal/extract"
)

// Converter turns a source document into a knowledge base.
type Converter struct {
	extractor *extract.Extractor
	chunker   *Chunker
}

// NewConverter creates a converter chunking with the given size and overlap (in characters).
func NewConverter(chunkSize, chunkOverlap int) *Converter {
	return &Converter{
		extractor: extract.NewExtractor(),
		chunker:   NewChunker(chunkSize, chunkOverlap),
	}
}

// Convert extracts the text of the file at path, normalizes whitespace and chunks it.
// source labels every chunk and titles the knowledge base; the file name without
// extension is used when source is empty.
func (c *Converter) Convert(path, source string) (*KnowledgeBase, *extract.Document, error) {
	doc, err := c.extractor.Extract(path)
	if err != nil {
		return nil, nil, fmt.Errorf("convert %s: %w", path, err)
	}
	if source == "" {
		base := filepath.Base(path)
		source = strings.TrimSuffix(base, filepath.Ext(base))
	}
	text := Preprocess(doc.Text)
	if text == "" {
		return nil, doc, fmt.Errorf("convert %s: no text extracted", path)
	}
	chunks := c.chunker.Chunk(text, source)
	return &KnowledgeBase{
		Title:       source,
		GeneratedAt: time.Now().UTC(),
		TotalChunks: len(chunks),
		Chunks:      chunks,
	}, doc, nil
}
