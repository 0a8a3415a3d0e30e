package processing

import (
	"regexp"
	"strings"
)

// Formal (니다.) and polite (요.) sentence endings, plus ? and ! before a space.
var sentenceEnd = regexp.MustCompile(`(니다\.|요\.|[?!]\s)`)

// Segment splits narration into utterances. The heuristic misses sentence
// boundaries that do not match the endings above; output keeps input order
// and never contains blank entries.
func Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllStringFunc(text, func(m string) string {
		return strings.TrimRight(m, " \t") + "\n"
	})

	var out []string
	for _, part := range strings.Split(marked, "\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Truncate keeps the first n utterances. n <= 0 disables truncation.
func Truncate(utterances []string, n int) []string {
	if n <= 0 || len(utterances) <= n {
		return append([]string(nil), utterances...)
	}
	return append([]string(nil), utterances[:n]...)
}
