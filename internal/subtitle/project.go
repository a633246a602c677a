package subtitle

import (
	"strings"
)

// Project flattens entries to one line per entry, joined by newlines.
// Line k of the result corresponds to entries[k].
func Project(entries []Entry) string {
	return strings.Join(ProjectLines(entries), "\n")
}

func ProjectLines(entries []Entry) []string {
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = flattenText(entry.Text)
	}
	return lines
}

// Transcript joins the projected lines with single spaces.
func Transcript(entries []Entry) string {
	var parts []string
	for _, line := range ProjectLines(entries) {
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// WriteProjection writes the flat-text companion of entries to path.
func WriteProjection(path string, entries []Entry) error {
	content := Project(entries)
	if len(entries) > 0 {
		content += "\n"
	}
	return writeFileAtomic(path, content)
}

func flattenText(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
