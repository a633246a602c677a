package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

var (
	vttTimestampRegex = regexp.MustCompile(
		`(\d+):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d+):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
	// inline karaoke timestamps and <c> style tags in auto captions
	vttTagRegex = regexp.MustCompile(`<[^>]*>`)
)

func ParseVTTFile(path string) (*Subtitle, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open VTT file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	sub, err := ParseVTT(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sub, nil
}

// ParseVTT reads WebVTT cues. Markup tags are removed and the rolling
// duplicate lines that YouTube auto captions repeat across cues are dropped.
func ParseVTT(r io.Reader) (*Subtitle, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEntry *Entry
	var textLines []string
	var previousLines []string
	lineNum := 0

	flush := func() {
		if currentEntry == nil {
			return
		}
		fresh := dropRepeatedLines(previousLines, textLines)
		if len(fresh) > 0 {
			currentEntry.Index = len(entries) + 1
			currentEntry.Text = strings.Join(fresh, "\n")
			entries = append(entries, *currentEntry)
			previousLines = textLines
		}
		currentEntry = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if currentEntry == nil && (strings.HasPrefix(trimmed, "WEBVTT") ||
			strings.HasPrefix(trimmed, "NOTE") ||
			strings.HasPrefix(trimmed, "STYLE") ||
			strings.HasPrefix(trimmed, "REGION")) {
			for scanner.Scan() {
				if strings.TrimSpace(scanner.Text()) == "" {
					break
				}
			}
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		if m := vttTimestampRegex.FindStringSubmatch(line); len(m) == 9 {
			flush()
			start, err := parseTimestamp(m[1], m[2], m[3], m[4])
			if err != nil {
				return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
			}
			end, err := parseTimestamp(m[5], m[6], m[7], m[8])
			if err != nil {
				return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
			}
			currentEntry = &Entry{StartTime: start, EndTime: end}
			continue
		}

		if m := vttShortTimestampRegex.FindStringSubmatch(line); len(m) == 7 {
			flush()
			start, err := parseTimestamp("0", m[1], m[2], m[3])
			if err != nil {
				return nil, fmt.Errorf("invalid start timestamp at line %d: %w", lineNum, err)
			}
			end, err := parseTimestamp("0", m[4], m[5], m[6])
			if err != nil {
				return nil, fmt.Errorf("invalid end timestamp at line %d: %w", lineNum, err)
			}
			currentEntry = &Entry{StartTime: start, EndTime: end}
			continue
		}

		// cue identifiers precede the timestamp and are ignored
		if currentEntry == nil {
			continue
		}

		text := strings.TrimSpace(vttTagRegex.ReplaceAllString(line, ""))
		if text != "" {
			textLines = append(textLines, text)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT content: %w", err)
	}

	return &Subtitle{Entries: entries, Format: string(FormatVTT)}, nil
}

func dropRepeatedLines(previous, current []string) []string {
	if len(previous) == 0 {
		return current
	}
	seen := make(map[string]bool, len(previous))
	for _, line := range previous {
		seen[line] = true
	}
	var fresh []string
	for _, line := range current {
		if !seen[line] {
			fresh = append(fresh, line)
		}
	}
	return fresh
}
