package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultGenerator turns transcription segments into readable entries.
// Segments longer than MaxLinesPerSub lines or MaxDuration are split at word
// boundaries, with time shared out in proportion to characters spoken.
type DefaultGenerator struct {
	MaxCharsPerLine int
	MaxLinesPerSub  int
	MinDuration     time.Duration
	MaxDuration     time.Duration
}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{
		MaxCharsPerLine: 42,
		MaxLinesPerSub:  2,
		MinDuration:     time.Second,
		MaxDuration:     7 * time.Second,
	}
}

// one split of a segment; offsets are relative to the segment start
type piece struct {
	words      []string
	start, end time.Duration
}

// converts transcription segments to numbered entries
func (g *DefaultGenerator) Generate(segments []Segment) []Entry {
	entries := []Entry{}
	for _, seg := range segments {
		words := strings.Fields(seg.Text)
		if len(words) == 0 {
			continue
		}
		for _, p := range g.chunk(words, seg.EndTime-seg.StartTime) {
			entries = append(entries, Entry{
				Index:     len(entries) + 1,
				StartTime: seg.StartTime + p.start,
				EndTime:   seg.StartTime + p.end,
				Text:      g.wrap(p.words),
			})
		}
	}
	g.extendShort(entries)
	return entries
}

// SegmentsFromEntries converts parsed entries back to raw segments.
func SegmentsFromEntries(entries []Entry) []Segment {
	segments := make([]Segment, 0, len(entries))
	for _, e := range entries {
		segments = append(segments, Segment{
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Text:      flattenText(e.Text),
		})
	}
	return segments
}

func (g *DefaultGenerator) maxChars() int {
	return g.MaxCharsPerLine * g.MaxLinesPerSub
}

// chunk splits words into the fewest pieces that respect the character and
// duration limits. A piece holding a single word may exceed both.
func (g *DefaultGenerator) chunk(words []string, duration time.Duration) []piece {
	total := utf8.RuneCountInString(strings.Join(words, " "))
	n := 1
	if mc := g.maxChars(); mc > 0 {
		n = max(n, (total+mc-1)/mc)
	}
	if g.MaxDuration > 0 {
		n = max(n, int((duration+g.MaxDuration-1)/g.MaxDuration))
	}
	for ; n < len(words); n++ {
		pieces := splitWords(words, n, total, duration)
		if g.fits(pieces) {
			return pieces
		}
	}
	return splitWords(words, len(words), total, duration)
}

func (g *DefaultGenerator) fits(pieces []piece) bool {
	for _, p := range pieces {
		if len(p.words) < 2 {
			continue
		}
		if mc := g.maxChars(); mc > 0 && utf8.RuneCountInString(strings.Join(p.words, " ")) > mc {
			return false
		}
		if g.MaxDuration > 0 && p.end-p.start > g.MaxDuration {
			return false
		}
	}
	return true
}

// splitWords puts each word in the n-th of the text its midpoint falls in.
// A piece starts at the time its first character is reached; the last one
// ends with the segment.
func splitWords(words []string, n, total int, duration time.Duration) []piece {
	var pieces []piece
	offset, current := 0, -1
	for _, w := range words {
		size := utf8.RuneCountInString(w)
		bucket := min((offset+size/2)*n/max(total, 1), n-1)
		if bucket > current {
			pieces = append(pieces, piece{start: at(duration, offset, total)})
			current = bucket
		}
		last := &pieces[len(pieces)-1]
		last.words = append(last.words, w)
		offset += size + 1
	}
	for i := range pieces {
		if i+1 < len(pieces) {
			pieces[i].end = pieces[i+1].start
		} else {
			pieces[i].end = duration
		}
	}
	return pieces
}

func at(duration time.Duration, offset, total int) time.Duration {
	if total == 0 {
		return 0
	}
	return time.Duration(int64(duration) * int64(offset) / int64(total))
}

// wrap breaks text onto two lines at the word boundary that best balances
// them once it exceeds MaxCharsPerLine.
func (g *DefaultGenerator) wrap(words []string) string {
	text := strings.Join(words, " ")
	runeCount := utf8.RuneCountInString(text)
	if runeCount <= g.MaxCharsPerLine || len(words) < 2 {
		return text
	}

	best, bestLonger := 0, runeCount
	first := 0
	for i := 0; i < len(words)-1; i++ {
		if i > 0 {
			first++
		}
		first += utf8.RuneCountInString(words[i])
		second := runeCount - first - 1
		if longer := max(first, second); longer < bestLonger {
			best, bestLonger = i+1, longer
		}
	}
	return strings.Join(words[:best], " ") + "\n" + strings.Join(words[best:], " ")
}

// extendShort stretches entries shorter than MinDuration into the silence
// after them, never overlapping the next entry.
func (g *DefaultGenerator) extendShort(entries []Entry) {
	for i := range entries {
		e := &entries[i]
		if e.EndTime-e.StartTime >= g.MinDuration {
			continue
		}
		end := e.StartTime + g.MinDuration
		if i+1 < len(entries) && entries[i+1].StartTime < end {
			end = entries[i+1].StartTime
		}
		if end > e.EndTime {
			e.EndTime = end
		}
	}
}
