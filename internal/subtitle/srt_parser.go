package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var srtTimestampRegex = regexp.MustCompile(
	`^\s*(\d+):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{3})`,
)

// ParseSRTFile reads the SubRip file at path. A missing file yields an
// error wrapping ErrNotFound.
func ParseSRTFile(path string) (*Subtitle, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	sub, err := ParseSRT(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sub, nil
}

type srtState int

const (
	srtIdle srtState = iota
	srtTimestamp
	srtText
	srtSkip
)

// ParseSRT extracts entries from SubRip content. Blocks without a digit-only
// index line followed by a timestamp line are skipped.
func ParseSRT(r io.Reader) (*Subtitle, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	state := srtIdle
	var current Entry
	var textLines []string
	lineNum := 0

	flush := func() {
		current.Text = strings.Join(textLines, "\n")
		entries = append(entries, current)
		current = Entry{}
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		blank := strings.TrimSpace(line) == ""

		switch state {
		case srtText:
			if blank {
				flush()
				state = srtIdle
				continue
			}
			textLines = append(textLines, strings.TrimSpace(line))
			continue

		case srtSkip:
			if blank {
				state = srtIdle
			}
			continue

		case srtTimestamp:
			if strings.Contains(line, "-->") {
				start, end, ok := parseSRTTimestampLine(line)
				if !ok {
					state = srtSkip
					continue
				}
				current.StartTime = start
				current.EndTime = end
				state = srtText
				continue
			}
			// index without timestamp; re-examine this line below
			state = srtIdle
		}

		if blank {
			continue
		}
		if index, ok := parseIndexLine(line); ok {
			current = Entry{Index: index}
			state = srtTimestamp
		}
	}

	if state == srtText {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT content: %w", err)
	}

	return &Subtitle{Entries: entries, Format: string(FormatSRT)}, nil
}

func parseIndexLine(line string) (int, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(line)
	if err != nil {
		return 0, false
	}
	return index, true
}

func parseSRTTimestampLine(line string) (time.Duration, time.Duration, bool) {
	matches := srtTimestampRegex.FindStringSubmatch(line)
	if len(matches) != 9 {
		return 0, 0, false
	}
	start, err := parseTimestamp(matches[1], matches[2], matches[3], matches[4])
	if err != nil {
		return 0, 0, false
	}
	end, err := parseTimestamp(matches[5], matches[6], matches[7], matches[8])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

func parseTimestamp(
	hours, minutes, seconds, millis string,
) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("timestamp out of range: %s:%s:%s", hours, minutes, seconds)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
