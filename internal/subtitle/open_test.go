package subtitle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpenSRT(t *testing.T) {
	content := `1
00:00:01,000 --> 00:00:04,000
Hello, world!

2
00:00:05,500 --> 00:00:08,200
This is a test.
With multiple lines.

3
00:00:10,000 --> 00:00:12,500
Final subtitle.
`
	tmpDir := t.TempDir()
	srtPath := filepath.Join(tmpDir, "test.srt")
	if err := os.WriteFile(srtPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	sub, err := Open(srtPath)
	if err != nil {
		t.Fatalf("failed to open SRT file: %v", err)
	}

	if sub.Format != string(FormatSRT) {
		t.Errorf("expected format SRT, got %s", sub.Format)
	}
	if len(sub.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(sub.Entries))
	}

	if sub.Entries[0].StartTime != 1*time.Second {
		t.Errorf(
			"entry 0: expected start 1s, got %v",
			sub.Entries[0].StartTime,
		)
	}
	if sub.Entries[0].EndTime != 4*time.Second {
		t.Errorf("entry 0: expected end 4s, got %v", sub.Entries[0].EndTime)
	}
	if sub.Entries[0].Text != "Hello, world!" {
		t.Errorf(
			"entry 0: expected 'Hello, world!', got %q",
			sub.Entries[0].Text,
		)
	}

	expectedText := "This is a test.\nWith multiple lines."
	if sub.Entries[1].Text != expectedText {
		t.Errorf(
			"entry 1: expected %q, got %q",
			expectedText,
			sub.Entries[1].Text,
		)
	}
}

func TestOpenVTT(t *testing.T) {
	content := `WEBVTT
Kind: captions
Language: en

NOTE generated by a tool

00:00:01.000 --> 00:00:04.000 align:start position:0%
<c>Hello</c> from<00:00:02.000><c> VTT</c>

00:00:04.000 --> 00:00:06.000
Hello from VTT
and more

05:00.000 --> 05:02.500
Short form
`
	tmpDir := t.TempDir()
	vttPath := filepath.Join(tmpDir, "test.en.vtt")
	if err := os.WriteFile(vttPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	sub, err := Open(vttPath)
	if err != nil {
		t.Fatalf("failed to open VTT file: %v", err)
	}

	want := []Entry{
		{Index: 1, StartTime: time.Second, EndTime: 4 * time.Second, Text: "Hello from VTT"},
		{Index: 2, StartTime: 4 * time.Second, EndTime: 6 * time.Second, Text: "and more"},
		{Index: 3, StartTime: 5 * time.Minute, EndTime: 5*time.Minute + 2500*time.Millisecond, Text: "Short form"},
	}
	if len(sub.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(sub.Entries), sub.Entries)
	}
	for i := range want {
		if sub.Entries[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], sub.Entries[i])
		}
	}
}

func TestOpenUnsupported(t *testing.T) {
	if _, err := Open("movie.ass"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestParseSRTFileNotFound(t *testing.T) {
	_, err := ParseSRTFile(filepath.Join(t.TempDir(), "missing.srt"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseSRTMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Entry
	}{
		{
			name: "missing timestamp line",
			content: "1\n00:00:01,000 --> 00:00:02,000\nfirst\n\n" +
				"2\nno timestamp here\n\n" +
				"3\n00:00:03,000 --> 00:00:04,000\nthird\n",
			want: []Entry{
				{Index: 1, StartTime: time.Second, EndTime: 2 * time.Second, Text: "first"},
				{Index: 3, StartTime: 3 * time.Second, EndTime: 4 * time.Second, Text: "third"},
			},
		},
		{
			name:    "non digit index",
			content: "A1\n00:00:01,000 --> 00:00:02,000\nskipped\n\n2\n00:00:02,000 --> 00:00:03,000\nkept\n",
			want: []Entry{
				{Index: 2, StartTime: 2 * time.Second, EndTime: 3 * time.Second, Text: "kept"},
			},
		},
		{
			name:    "index followed directly by next index",
			content: "1\n2\n00:00:01,000 --> 00:00:02,000\nsecond\n",
			want: []Entry{
				{Index: 2, StartTime: time.Second, EndTime: 2 * time.Second, Text: "second"},
			},
		},
		{
			name:    "garbled timestamp values",
			content: "1\n00:xx:01,000 --> 00:00:02,000\nbad\n\n2\n00:00:05,000 --> 00:00:06,000\ngood\n",
			want: []Entry{
				{Index: 2, StartTime: 5 * time.Second, EndTime: 6 * time.Second, Text: "good"},
			},
		},
		{
			name:    "bom crlf and no trailing newline",
			content: "\ufeff1\r\n00:00:01.250 --> 00:00:02,000\r\nline one\r\nline two",
			want: []Entry{
				{Index: 1, StartTime: 1250 * time.Millisecond, EndTime: 2 * time.Second, Text: "line one\nline two"},
			},
		},
		{
			name:    "block without text",
			content: "1\n00:00:01,000 --> 00:00:02,000\n\n\n2\n00:00:02,000 --> 00:00:03,000\nafter\n",
			want: []Entry{
				{Index: 1, StartTime: time.Second, EndTime: 2 * time.Second, Text: ""},
				{Index: 2, StartTime: 2 * time.Second, EndTime: 3 * time.Second, Text: "after"},
			},
		},
		{
			name:    "empty input",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := ParseSRT(strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("ParseSRT failed: %v", err)
			}
			if len(sub.Entries) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d: %+v", len(tt.want), len(sub.Entries), sub.Entries)
			}
			for i := range tt.want {
				if sub.Entries[i] != tt.want[i] {
					t.Errorf("entry %d: expected %+v, got %+v", i, tt.want[i], sub.Entries[i])
				}
			}
		})
	}
}

func TestFormatSRTTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{1500 * time.Millisecond, "00:00:01,500"},
		{time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, "01:02:03,004"},
		{100 * time.Hour, "100:00:00,000"},
		{-time.Second, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := formatSRTTime(tt.d); got != tt.want {
			t.Errorf("formatSRTTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatSRT(t *testing.T) {
	entries := []Entry{
		{Index: 1, StartTime: time.Second, EndTime: 2 * time.Second, Text: "Bonjour"},
		{Index: 2, StartTime: 2 * time.Second, EndTime: 3 * time.Second, Text: ""},
		{StartTime: 3 * time.Second, EndTime: 4 * time.Second, Text: "a\nb"},
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nBonjour\n\n" +
		"2\n00:00:02,000 --> 00:00:03,000\n\n\n" +
		"3\n00:00:03,000 --> 00:00:04,000\na\nb\n\n"
	if got := FormatSRT(entries); got != want {
		t.Errorf("FormatSRT mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestWriteSRTDeterministic(t *testing.T) {
	entries := []Entry{
		{Index: 1, StartTime: 0, EndTime: 1500 * time.Millisecond, Text: "Bonjour"},
		{Index: 2, StartTime: 1500 * time.Millisecond, EndTime: 3 * time.Second, Text: ""},
		{Index: 3, StartTime: 3 * time.Second, EndTime: time.Hour, Text: "a\nb"},
	}
	if FormatSRT(entries) != FormatSRT(entries) {
		t.Fatal("FormatSRT output differs between calls")
	}

	dir := t.TempDir()
	first, second := filepath.Join(dir, "first.srt"), filepath.Join(dir, "second.srt")
	for _, path := range []string{first, second} {
		if err := WriteSRT(path, entries); err != nil {
			t.Fatalf("WriteSRT failed: %v", err)
		}
	}
	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("written files differ:\n%q\n%q", a, b)
	}
	if string(a) != FormatSRT(entries) {
		t.Errorf("file content differs from FormatSRT: %q", a)
	}
}

func TestWriteSRTRoundTrip(t *testing.T) {
	original := []Entry{
		{Index: 1, StartTime: 0, EndTime: 2 * time.Second, Text: "Hello"},
		{Index: 2, StartTime: 2 * time.Second, EndTime: 4*time.Second + 5*time.Millisecond, Text: "World"},
		{Index: 3, StartTime: time.Hour, EndTime: time.Hour + time.Second, Text: "Bye"},
	}
	translated, _ := Realign(original, "Bonjour\nMonde\nAu revoir")

	path := filepath.Join(t.TempDir(), "nested", "video_fr.srt")
	if err := WriteSRT(path, translated); err != nil {
		t.Fatalf("WriteSRT failed: %v", err)
	}

	sub, err := ParseSRTFile(path)
	if err != nil {
		t.Fatalf("ParseSRTFile failed: %v", err)
	}
	if len(sub.Entries) != len(original) {
		t.Fatalf("expected %d entries, got %d", len(original), len(sub.Entries))
	}
	for i := range original {
		got := sub.Entries[i]
		if got.Index != original[i].Index ||
			got.StartTime != original[i].StartTime ||
			got.EndTime != original[i].EndTime {
			t.Errorf("entry %d: timing changed: %+v vs %+v", i, got, original[i])
		}
		if got.Text != translated[i].Text {
			t.Errorf("entry %d: expected %q, got %q", i, translated[i].Text, got.Text)
		}
	}
}

func TestProject(t *testing.T) {
	entries := []Entry{
		{Index: 1, Text: "Hello"},
		{Index: 2, Text: "two\n  lines "},
		{Index: 3, Text: ""},
		{Index: 4, Text: "end"},
	}
	got := Project(entries)
	want := "Hello\ntwo lines\n\nend"
	if got != want {
		t.Errorf("Project = %q, want %q", got, want)
	}
	if n := len(strings.Split(got, "\n")); n != len(entries) {
		t.Errorf("expected %d lines, got %d", len(entries), n)
	}
	if tr := Transcript(entries); tr != "Hello two lines end" {
		t.Errorf("Transcript = %q", tr)
	}
}

func TestWriteProjection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video.txt")
	entries := []Entry{{Index: 1, Text: "a"}, {Index: 2, Text: "b\nc"}}
	if err := WriteProjection(path, entries); err != nil {
		t.Fatalf("WriteProjection failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\nb c\n" {
		t.Errorf("unexpected projection %q", data)
	}
}
