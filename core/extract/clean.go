package extract

import (
	"regexp"
	"strings"
)

// fencePattern matches a markdown fence marker: three backticks optionally
// followed by a language tag such as json or JSON5.
var fencePattern = regexp.MustCompile("```[A-Za-z0-9_+.-]*")

// StripFences removes every markdown fence marker from text, wherever it
// appears, along with a leading byte order mark.
func StripFences(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	return fencePattern.ReplaceAllString(text, "")
}

// SliceObject returns the span from the first '{' to the last '}' of text.
// The second return value is false when there is no such pair, in which case
// the trimmed text is returned unchanged.
//
// This is a heuristic: prose containing unrelated braces, or several
// independent objects in one response, produce a span that will not parse.
func SliceObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return strings.TrimSpace(text), false
	}
	return text[start : end+1], true
}

// afterMarker keeps only the text following the last occurrence of marker.
// Text without the marker is returned unchanged.
func afterMarker(text, marker string) string {
	if marker == "" {
		return text
	}
	idx := strings.LastIndex(text, marker)
	if idx == -1 {
		return text
	}
	return text[idx+len(marker):]
}
