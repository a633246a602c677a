package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"
)

// FormatSRT renders entries as SubRip. Each block is the index, the
// timestamp line, the text, and a blank line.
func FormatSRT(entries []Entry) string {
	var sb strings.Builder
	for i, entry := range entries {
		index := entry.Index
		if index <= 0 {
			index = i + 1
		}
		fmt.Fprintf(&sb, "%d\n", index)

		// timestamps: 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.EndTime))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// WriteSRT atomically writes entries to path as SubRip.
func WriteSRT(path string, entries []Entry) error {
	return writeFileAtomic(path, FormatSRT(entries))
}

func formatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func writeFileAtomic(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Cancel()
	if _, err := f.Write([]byte(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
