package subtitle

import (
	"strings"
)

// Realign pairs translated lines with entries by position. Line k of
// translated becomes the text of entries[k]; timing and indexes are copied
// unchanged. A short translation is padded with blank lines and a long one
// is truncated, so the result always has len(entries) entries.
//
// Alignment is strictly positional: a translator that merges or splits
// lines shifts every following segment.
func Realign(entries []Entry, translated string) ([]Entry, []Warning) {
	lines := SplitLines(translated)

	var warnings []Warning
	if len(lines) != len(entries) {
		warnings = append(warnings, Warning{
			Kind:     WarnAlignmentMismatch,
			Expected: len(entries),
			Got:      len(lines),
		})
	}

	out := make([]Entry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		if i < len(lines) {
			out[i].Text = lines[i]
			continue
		}
		out[i].Text = ""
		warnings = append(warnings, Warning{
			Kind:  WarnMissingSegment,
			Index: entryIndex(entry, i),
		})
	}

	return out, warnings
}

// SplitLines splits text on newlines, dropping a trailing carriage return
// from each line. An empty string yields a single empty line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func entryIndex(entry Entry, position int) int {
	if entry.Index > 0 {
		return entry.Index
	}
	return position + 1
}
