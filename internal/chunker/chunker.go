// Package chunker splits plan documents into bounded, metadata-tagged text
// units for the vector store. All strategies are rule-based; the only
// collaborator is the tokenizer.
package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"planbase/internal/models"
	"planbase/internal/token"
)

const (
	defaultChunkSize    = 600
	defaultChunkOverlap = 50

	// minChunkChars is the smallest standalone chunk; anything shorter is
	// merged into its predecessor.
	minChunkChars = 100
)

type Chunker struct {
	codec   token.Codec
	size    int
	overlap int
}

func New(codec token.Codec, chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	return &Chunker{codec: codec, size: chunkSize, overlap: chunkOverlap}
}

// SplitTokenWindows encodes the full text and emits windows of the
// configured token size, each advancing by size-overlap tokens. Coverage is
// total: every token appears in at least one window and the final partial
// window is emitted as-is. The advance step is clamped to at least one
// token so an overlap >= size cannot stall the walk.
func (c *Chunker) SplitTokenWindows(text, planID string) []models.Chunk {
	tokens := c.codec.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}

	chunks := make([]models.Chunk, 0, len(tokens)/step+1)
	for i := 0; i < len(tokens); i += step {
		end := i + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[i:end]
		chunks = append(chunks, models.Chunk{
			Text: c.codec.Decode(window),
			Metadata: models.ChunkMetadata{
				ChunkID:    newChunkID(planID, "win", len(chunks)),
				PlanID:     planID,
				TokenCount: len(window),
				ChunkType:  "token_window",
				ChunkIndex: len(chunks),
			},
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// newChunkID builds a unique chunk identifier. Uniqueness comes from the
// random suffix; the prefix only aids debugging.
func newChunkID(planID, tag string, index int) string {
	return fmt.Sprintf("%s-%s-%d-%s", planID, tag, index, uuid.NewString()[:8])
}
