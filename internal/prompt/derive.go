package prompt

import (
	"regexp"
	"strings"
)

// UntitledFallback is used when no title can be derived from content.
const UntitledFallback = "Untitled"

// maxTitleRunes caps derived titles at a display-friendly length.
const maxTitleRunes = 50

// headingPrefix matches leading markdown heading markers.
var headingPrefix = regexp.MustCompile(`^#+\s*`)

// FirstLine derives a display title from the first non-empty line of text.
// Markdown heading markers are stripped and long lines are truncated with
// an ellipsis. Returns UntitledFallback for blank input.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = headingPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return truncate(line, maxTitleRunes)
	}
	return UntitledFallback
}

// Summarize derives a short preview from text: the content collapsed to a
// single line and truncated to max runes. Returns "" for blank input.
func Summarize(text string, max int) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	joined := headingPrefix.ReplaceAllString(strings.Join(fields, " "), "")
	return truncate(joined, max)
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
