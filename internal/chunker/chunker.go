package chunker

import (
	"strings"
	"unicode"

	"docchat/internal/apperr"
)

// Chunker splits text into fixed-size pieces where each piece after the
// first repeats the final `overlap` runes of its predecessor. Cuts prefer
// the last whitespace inside the window so tokens are not split mid-word;
// a hard cut is used only when the window tail contains no whitespace.
type Chunker struct {
	size    int
	overlap int
}

// New validates the chunking parameters. Overlap must be smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, apperr.Validation("chunk size must be > 0, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, apperr.Validation("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split chunks a single text. Returns nil for empty or whitespace-only
// input. The pieces reconstruct the input exactly: piece 0, then every
// subsequent piece with its first `overlap` runes dropped.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		// prefer cutting just after a whitespace rune, but never so early
		// that the next chunk would not advance past this one
		for j := end - 1; j > start+c.overlap; j-- {
			if unicode.IsSpace(runes[j]) {
				end = j + 1
				break
			}
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - c.overlap
	}
	return chunks
}
