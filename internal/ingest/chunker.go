package ingest

import "strings"

// ChunkText splits text into chunks of at most chunkSize characters,
// preferring to break at a code block fence, then at a paragraph break,
// then at a sentence end. A boundary is only taken once it lies past 30%
// of the chunk, so pathological inputs cannot produce tiny slivers.
func ChunkText(text string, chunkSize int) []string {
	var chunks []string
	start := 0
	textLength := len(text)

	for start < textLength {
		end := start + chunkSize

		if end >= textLength {
			if chunk := strings.TrimSpace(text[start:]); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		window := text[start:end]
		minBreak := int(float64(chunkSize) * 0.3)

		if fence := strings.LastIndex(window, "```"); fence > minBreak {
			end = start + fence
		} else if para := strings.LastIndex(window, "\n\n"); para > minBreak {
			end = start + para
		} else if sentence := strings.LastIndex(window, ". "); sentence > minBreak {
			end = start + sentence + 1
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start = max(start+1, end)
	}

	return chunks
}
