package text

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// PageSeparator joins consecutive page texts before chunking.
const PageSeparator = "\n\n"

const (
	// minBoundaryRatio is the fraction of the window a boundary must lie beyond
	// to be used; earlier boundaries would produce overly short chunks.
	minBoundaryRatio = 0.3
)

// Chunk is a contiguous slice of the concatenated page text. Start and End are
// byte offsets into that text and always fall on rune boundaries; Text is the
// trimmed slice.
type Chunk struct {
	ID    string `json:"id" bson:"id"`
	Text  string `json:"text" bson:"text"`
	Start int    `json:"start" bson:"start"`
	End   int    `json:"end" bson:"end"`
}

// JoinPages concatenates page texts the same way ChunkPages does, so chunk
// offsets can be resolved against the returned string.
func JoinPages(pages []string) string {
	return strings.Join(pages, PageSeparator)
}

// ChunkPages splits the pages into overlapping chunks of at most chunkSize bytes.
//
// A window that does not reach the end of the text is shrunk to end right after
// the last newline, space or period it contains, provided that boundary lies
// past 30% of the window. Consecutive windows overlap by overlap bytes. Empty
// or whitespace-only input yields no chunks.
func ChunkPages(pages []string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	text := JoinPages(pages)
	l := len(text)

	var chunks []Chunk
	start, cid := 0, 0
	for start < l {
		end := start + chunkSize
		if end < l {
			end = runeFloor(text, end)
			if end <= start {
				// window narrower than one rune
				end = runeCeil(text, start+1)
			}
			if back := lastBoundary(text[start:end]); back > int(float64(chunkSize)*minBoundaryRatio) {
				end = start + back + 1
			}
		} else {
			end = l
		}

		if part := strings.TrimSpace(text[start:end]); part != "" {
			chunks = append(chunks, Chunk{
				ID:    strconv.Itoa(cid),
				Text:  part,
				Start: start,
				End:   end,
			})
			cid++
		}

		if end >= l {
			break
		}

		next := runeFloor(text, end-overlap)
		if next <= start {
			// overlap >= window length: keep moving forward
			next = runeCeil(text, start+1)
		}
		start = next
	}

	return chunks
}

// runeFloor moves i back to the start of the rune containing it.
func runeFloor(s string, i int) int {
	if i <= 0 {
		return 0
	}
	for i < len(s) && i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil moves i forward to the next rune start, or len(s).
func runeCeil(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return min(i, len(s))
}

func lastBoundary(window string) int {
	return max(
		strings.LastIndexByte(window, '\n'),
		strings.LastIndexByte(window, ' '),
		strings.LastIndexByte(window, '.'),
	)
}
