package processing

import (
	"regexp"
	"strings"
)

// SourceLabel prefixes the link a script cites.
const SourceLabel = "출처"

var sourceMarker = regexp.MustCompile(`(?i)(?:출처|source)\s*[:：]\s*(https?://[^\s<>"'\x{201C}\x{201D}]+)`)

// ExtractSourceURL returns the link of the first "출처: <url>" or
// "source: <url>" marker, or "" when there is none.
func ExtractSourceURL(text string) string {
	m := sourceMarker.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimRight(m[1], ".,;)]")
}

// StripSourceMarker removes every source marker from the text.
func StripSourceMarker(text string) string {
	return strings.TrimSpace(sourceMarker.ReplaceAllString(text, ""))
}

// AppendSourceMarker puts the marker on its own trailing line.
func AppendSourceMarker(text, link string) string {
	if link == "" {
		return text
	}
	return strings.TrimRight(text, "\n ") + "\n\n" + SourceLabel + ": " + link
}
