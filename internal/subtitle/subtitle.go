package subtitle

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a subtitle file does not exist.
var ErrNotFound = errors.New("subtitle file not found")

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// represents transcribed audio segment
type Segment struct {
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

type WarningKind string

const (
	// raw translated line count differs from the segment count
	WarnAlignmentMismatch WarningKind = "alignment_mismatch"
	// a segment received a padded blank line
	WarnMissingSegment WarningKind = "missing_segment"
	// companion transcript line count differs from the segment count
	WarnTranscriptMismatch WarningKind = "transcript_mismatch"
)

// Warning is a non-fatal alignment diagnostic. Index is set for
// WarnMissingSegment; Expected and Got are set for the count mismatches.
type Warning struct {
	Kind     WarningKind
	Index    int
	Expected int
	Got      int
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnMissingSegment:
		return fmt.Sprintf("missing translation for segment %d", w.Index)
	case WarnAlignmentMismatch:
		return fmt.Sprintf(
			"alignment issue: expected %d lines, got %d",
			w.Expected,
			w.Got,
		)
	case WarnTranscriptMismatch:
		return fmt.Sprintf(
			"transcript has %d lines but subtitle has %d segments",
			w.Got,
			w.Expected,
		)
	default:
		return string(w.Kind)
	}
}
