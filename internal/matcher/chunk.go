package matcher

import "strings"

// PadToken fills out the final window of a document so every chunk carries
// exactly the same number of tokens.
const PadToken = "[PAD]"

// Chunk splits text into overlapping word-windows of size words each,
// advancing size-overlap words per step. The last window is right-padded with
// PadToken. Empty text yields no chunks. Callers are responsible for
// validating 0 <= overlap < size at startup; a chunk count of
// ceil(words/(size-overlap)) is guaranteed for non-empty input.
func Chunk(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		window := words[i:end]
		if len(window) < size {
			padded := make([]string, size)
			copy(padded, window)
			for j := len(window); j < size; j++ {
				padded[j] = PadToken
			}
			window = padded
		}
		chunks = append(chunks, strings.Join(window, " "))
	}
	return chunks
}
