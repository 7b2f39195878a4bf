package knowledge

import (
	"fmt"

	"github.com/remixer1943/Ai/internal/models"
)

// sentenceEnd is the full stop a chunk prefers to end on.
const sentenceEnd = '。'

// Chunker splits text into overlapping character windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits text into chunks tagged with source. Windows start every size-overlap
// characters. A window that is not the last one is cut after its final '。' when that
// falls in the last fifth of the window. IDs are chunk-1, chunk-2, ...
func (c *Chunker) Chunk(text, source string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	var chunks []models.Chunk
	for i := 0; i < len(runes); i += step {
		end := min(i+c.chunkSize, len(runes))
		window := runes[i:end]
		if end < len(runes) {
			if cut := lastIndex(window, sentenceEnd); cut >= 0 && float64(cut) > float64(c.chunkSize)*0.8 {
				window = window[:cut+1]
			}
		}
		chunks = append(chunks, models.Chunk{
			ID:     fmt.Sprintf("chunk-%d", len(chunks)+1),
			Text:   string(window),
			Source: source,
		})
		if end >= len(runes) {
			break
		}
	}
	return chunks
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
