package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"planbase/internal/models"
)

var (
	spaceRunPattern    = regexp.MustCompile(`[ \t]+`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
	paragraphPattern   = regexp.MustCompile(`\n\s*\n`)
	sentenceEndPattern = regexp.MustCompile(`[.!?]\s+`)
	sentenceSplit      = regexp.MustCompile(`[.!?]+\s+`)
)

// Boundary search windows, in characters from the target offset. A
// paragraph break within paragraphWindow wins; otherwise the nearest
// sentence ending within sentenceWindow; otherwise the raw target.
const (
	paragraphWindow = 200
	sentenceWindow  = 100

	// charsPerToken is the rough character estimate used to convert the
	// token budget into a character walk target.
	charsPerToken = 4
)

// SmartChunks splits raw document text on semantic boundaries, keeping each
// chunk near the configured token budget. Text that fits the budget becomes
// exactly one chunk. A trailing fragment shorter than minChunkChars is
// merged into the previous chunk instead of emitted standalone.
func (c *Chunker) SmartChunks(text, planID string) []models.Chunk {
	text = cleanText(text)
	if len(strings.TrimSpace(text)) < 50 {
		return nil
	}

	totalTokens := c.codec.Count(text)
	if totalTokens <= c.size {
		return []models.Chunk{{
			Text: text,
			Metadata: models.ChunkMetadata{
				ChunkID:    newChunkID(planID, "doc", 0),
				PlanID:     planID,
				TokenCount: totalTokens,
				ChunkType:  "single_document",
				KeyPhrases: ExtractKeyPhrases(text),
			},
		}}
	}

	var chunks []models.Chunk
	start := 0
	for start < len(text) {
		// Offsets are byte positions; every computed one must land on a
		// rune start or the slice below splits a multibyte character.
		targetEnd := snapRuneStart(text, start+c.size*charsPerToken)

		var chunkText string
		var actualEnd int
		last := targetEnd >= len(text)
		if last {
			actualEnd = len(text)
			chunkText = text[start:]
		} else {
			actualEnd = findBoundary(text, targetEnd)
			if actualEnd <= start {
				actualEnd = targetEnd
			}
			chunkText = text[start:actualEnd]
		}

		if last && len(strings.TrimSpace(chunkText)) < minChunkChars && len(chunks) > 0 {
			prev := &chunks[len(chunks)-1]
			prev.Text += " " + strings.TrimSpace(chunkText)
			prev.Metadata.TokenCount = c.codec.Count(prev.Text)
			break
		}

		trimmed := strings.TrimSpace(chunkText)
		chunks = append(chunks, models.Chunk{
			Text: trimmed,
			Metadata: models.ChunkMetadata{
				ChunkID:    newChunkID(planID, "sem", len(chunks)),
				PlanID:     planID,
				TokenCount: c.codec.Count(trimmed),
				ChunkType:  "semantic_section",
				ChunkIndex: len(chunks),
				KeyPhrases: ExtractKeyPhrases(chunkText),
			},
		})

		if last {
			break
		}
		overlapChars := c.overlap * charsPerToken
		if max := len(chunkText) / 4; overlapChars > max {
			overlapChars = max
		}
		next := snapRuneStart(text, actualEnd-overlapChars)
		// The walk must always advance.
		if next <= start {
			next = actualEnd
		}
		if next <= start {
			next = nextRuneStart(text, start)
		}
		start = next
	}
	return chunks
}

// findBoundary returns the best split position near target: the closest
// paragraph break within paragraphWindow chars, falling back to the closest
// sentence ending within sentenceWindow chars, falling back to target.
func findBoundary(text string, target int) int {
	best := target
	minDistance := paragraphWindow

	for _, loc := range paragraphPattern.FindAllStringIndex(text, -1) {
		distance := abs(loc[0] - target)
		if distance < minDistance {
			minDistance = distance
			best = loc[0]
		}
	}
	if best != target {
		return best
	}

	minDistance = sentenceWindow
	for _, loc := range sentenceEndPattern.FindAllStringIndex(text, -1) {
		distance := abs(loc[1] - target)
		if distance < minDistance {
			minDistance = distance
			best = loc[1]
		}
	}
	return best
}

// SentenceChunks is the fallback strategy: accumulate sentences until the
// next one would push the running token count past the budget, then close
// the chunk. Used when semantic splitting yields nothing.
func (c *Chunker) SentenceChunks(text, planID string) []models.Chunk {
	var chunks []models.Chunk
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunkText := strings.TrimSpace(strings.Join(current, " "))
		chunks = append(chunks, models.Chunk{
			Text: chunkText,
			Metadata: models.ChunkMetadata{
				ChunkID:    newChunkID(planID, "fallback", len(chunks)),
				PlanID:     planID,
				TokenCount: c.codec.Count(chunkText),
				ChunkType:  "fallback_semantic",
				ChunkIndex: len(chunks),
			},
		})
		current = current[:0]
		currentTokens = 0
	}

	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		n := c.codec.Count(sentence)
		if currentTokens+n > c.size && len(current) > 0 {
			flush()
		}
		current = append(current, sentence)
		currentTokens += n
	}
	flush()
	return chunks
}

func cleanText(s string) string {
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// snapRuneStart moves pos backwards to the nearest rune start so byte
// slices at pos never cut a multibyte character in half.
func snapRuneStart(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

func nextRuneStart(text string, pos int) int {
	_, width := utf8.DecodeRuneInString(text[pos:])
	if width == 0 {
		return pos + 1
	}
	return pos + width
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
