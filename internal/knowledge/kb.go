// Package knowledge reads and writes the chunked knowledge base and produces it from
// source documents.
package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/remixer1943/Ai/internal/models"
)

// KnowledgeBase is the JSON document the builder consumes.
type KnowledgeBase struct {
	Title       string         `json:"title"`
	GeneratedAt time.Time      `json:"generatedAt"`
	TotalChunks int            `json:"totalChunks"`
	Chunks      []models.Chunk `json:"chunks"`
}

// Load reads a knowledge base file. A bare JSON array of chunks is accepted as well.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var chunks []models.Chunk
		if err := json.Unmarshal(data, &chunks); err != nil {
			return nil, fmt.Errorf("failed to parse knowledge base %s: %w", path, err)
		}
		return &KnowledgeBase{TotalChunks: len(chunks), Chunks: chunks}, nil
	}
	var kb KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base %s: %w", path, err)
	}
	if kb.TotalChunks != 0 && kb.TotalChunks != len(kb.Chunks) {
		return nil, fmt.Errorf("knowledge base %s declares %d chunks but contains %d", path, kb.TotalChunks, len(kb.Chunks))
	}
	kb.TotalChunks = len(kb.Chunks)
	return &kb, nil
}

// Save writes kb as indented JSON, creating parent directories. Non-ASCII text is kept as is.
func Save(path string, kb *KnowledgeBase) error {
	kb.TotalChunks = len(kb.Chunks)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(kb); err != nil {
		return fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create knowledge base directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	return nil
}
