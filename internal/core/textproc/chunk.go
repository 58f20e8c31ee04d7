package textproc

import (
	"github.com/ugel-ilo/sgd-backend/internal/core"
)

// Default sliding-window parameters, in characters.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// Chunk splits text into overlapping fixed-size windows. Consecutive chunks
// share the last overlap characters of one with the first overlap characters
// of the next; the final chunk may be shorter than size. An empty input
// yields no chunks, and input no longer than size yields exactly one chunk.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= overlap {
		return nil, core.InputError("chunk size (%d) must be greater than overlap (%d)", size, overlap)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}
