package ask

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tiledocs/agent-backend/internal/entity"
)

const matchSeparator = "\n\n---\n\n"

type assembledContext struct {
	// Block is the concatenated context text handed to the generator.
	Block string
	// Used are the matches that made it into Block, in rank order. Source
	// attribution in the answer is drawn from these, not from the full
	// match set.
	Used []entity.RetrievedMatch
}

// assembleContext concatenates matches into a single context block in rank
// order, keeping each match's title, summary, content and source URL.
// Once the character budget is exceeded, lower-ranked matches are dropped
// whole. The top match is the exception: if it alone exceeds the budget it
// is hard-truncated rather than producing an empty context.
func assembleContext(matches []entity.RetrievedMatch, maxChars int) assembledContext {
	var (
		b    strings.Builder
		used []entity.RetrievedMatch
	)

	for i, m := range matches {
		section := formatMatch(m)

		needed := len(section)
		if i > 0 {
			needed += len(matchSeparator)
		}

		if b.Len()+needed > maxChars {
			if i == 0 {
				b.WriteString(truncate(section, maxChars))
				used = append(used, m)
			}
			break
		}

		if i > 0 {
			b.WriteString(matchSeparator)
		}
		b.WriteString(section)
		used = append(used, m)
	}

	return assembledContext{
		Block: b.String(),
		Used:  used,
	}
}

func formatMatch(m entity.RetrievedMatch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", m.Title)
	if m.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", m.Summary)
	}
	b.WriteString(m.Content)
	fmt.Fprintf(&b, "\n\nSource: %s", m.URL)

	return b.String()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
