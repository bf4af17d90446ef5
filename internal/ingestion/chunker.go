package ingestion

import (
	"regexp"
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceRe   = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// Chunk is one retrievable segment of an extracted document.
type Chunk struct {
	Text string
}

// ChunkText splits text into segments of at most maxChunkSize
// characters, carrying the last overlap characters of each closed
// segment into the next so sentences at a boundary keep their context.
// A sentence longer than maxChunkSize is kept whole; segments may
// exceed the limit in that case.
func ChunkText(text string, maxChunkSize, overlap int) []Chunk {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}

	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	if len(cleaned) <= maxChunkSize {
		return []Chunk{{Text: cleaned}}
	}

	sentences := sentenceRe.FindAllString(cleaned, -1)
	if sentences == nil {
		sentences = []string{cleaned}
	}

	var chunks []Chunk
	current := ""

	for _, sentence := range sentences {
		if len(current)+len(sentence) > maxChunkSize {
			if len(current) > 0 {
				chunks = append(chunks, Chunk{Text: strings.TrimSpace(current)})
			}
			if len(current) > overlap {
				current = current[len(current)-overlap:] + " " + sentence
			} else {
				current = sentence
			}
		} else {
			current += " " + sentence
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, Chunk{Text: strings.TrimSpace(current)})
	}

	return chunks
}
