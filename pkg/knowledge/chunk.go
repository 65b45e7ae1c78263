package knowledge

import "strings"

const (
	// DefaultChunkSize is the target passage length in runes.
	DefaultChunkSize = 800

	// DefaultChunkOverlap is how many runes consecutive passages share.
	DefaultChunkOverlap = 100
)

// Chunk splits text into overlapping rune windows. Boundaries prefer the
// last whitespace inside the window so words stay intact. size <= 0 and
// out-of-range overlaps select the defaults.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		// Break on whitespace when one exists in the back half of the
		// window.
		cut := end
		for i := end; i > start+size/2; i-- {
			if isSpace(runes[i-1]) {
				cut = i
				break
			}
		}

		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
