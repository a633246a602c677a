package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mgpai22/captionkit/internal/retry"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

type fakeGenerator struct {
	responses map[string]string
	prompts   []string
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	for marker, resp := range f.responses {
		if strings.Contains(prompt, marker) {
			return resp, nil
		}
	}
	return "", nil
}

const captions = `1
00:00:00,000 --> 00:00:02,000
Welcome to the clinic.

2
00:00:02,000 --> 00:00:04,000
Today we talk
about sleep.
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "video.srt"), []byte(captions), 0644); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, "video.mp4")
}

func responses() map[string]string {
	return map[string]string{
		"Generate a title":       "  \"Better Sleep Basics\"  \n",
		"Generate a description": "  Learn about sleep.  \r\n  Tips included. ",
		"Generate tags":          "sleep, Health, health, Mayo Clinic tips, #wellness",
	}
}

func TestGenerateAllWritesFiles(t *testing.T) {
	video := setup(t)
	gen := &fakeGenerator{responses: responses()}
	svc := NewService(gen, nil, Options{AvoidTerms: []string{"Mayo Clinic"}, MaxTags: 15})

	results, err := svc.GenerateAll(context.Background(), video)
	if err != nil {
		t.Fatalf("GenerateAll error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	want := map[Kind]string{
		KindTitle:       "Better Sleep Basics",
		KindDescription: "Learn about sleep.\nTips included.",
		KindTags:        "sleep, Health, wellness",
	}
	for kind, value := range want {
		data, err := os.ReadFile(OutputPath(video, kind))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != value {
			t.Errorf("%s = %q, want %q", kind, data, value)
		}
	}

	prompt := gen.prompts[0]
	for _, s := range []string{
		"in English",
		"DO NOT include 'Mayo Clinic' in the title.",
		"<transcript>\nWelcome to the clinic. Today we talk about sleep.\n</transcript>",
	} {
		if !strings.Contains(prompt, s) {
			t.Errorf("prompt missing %q:\n%s", s, prompt)
		}
	}
}

func TestGenerateSkipsExisting(t *testing.T) {
	video := setup(t)
	if err := os.WriteFile(OutputPath(video, KindTitle), []byte("Kept"), 0644); err != nil {
		t.Fatal(err)
	}
	gen := &fakeGenerator{responses: responses()}
	res, err := NewService(gen, nil, Options{}).Generate(context.Background(), video, KindTitle)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || len(gen.prompts) != 0 {
		t.Errorf("expected skip without generation, got %+v prompts=%d", res, len(gen.prompts))
	}
}

func TestGenerateMissingCaptions(t *testing.T) {
	video := filepath.Join(t.TempDir(), "none.mp4")
	_, err := NewService(&fakeGenerator{}, nil, Options{}).Generate(context.Background(), video, KindTags)
	if !errors.Is(err, subtitle.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateEmptyResponseFails(t *testing.T) {
	video := setup(t)
	svc := NewService(&fakeGenerator{responses: map[string]string{}}, nil, Options{Retry: retry.None()})
	if _, err := svc.Generate(context.Background(), video, KindDescription); err == nil {
		t.Fatal("expected error for empty response")
	}
	if _, err := os.Stat(OutputPath(video, KindDescription)); err == nil {
		t.Error("no file should be written")
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		avoid []string
		want  []string
	}{
		{"commas", "a, b ,c", 0, nil, []string{"a", "b", "c"}},
		{"bullets and newlines", "- Sleep\n- Health\n* sleep", 0, nil, []string{"Sleep", "Health"}},
		{"cap", "a, b, c, d", 2, nil, []string{"a", "b"}},
		{"avoid", "Mayo Clinic, sleep, mayo clinic news", 0, []string{"Mayo Clinic"}, []string{"sleep"}},
		{"quotes and periods", "\"tips\", rest.", 0, nil, []string{"tips", "rest"}},
		{"empty", " , ,", 0, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.input, tt.max, tt.avoid)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Plain title ", "Plain title"},
		{"\n\nTitle: Sleep Well\nextra", "Sleep Well"},
		{"\"Quoted\"", "Quoted"},
		{"**Bold**", "Bold"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Tags "); err != nil || k != KindTags {
		t.Errorf("ParseKind = %v, %v", k, err)
	}
	if _, err := ParseKind("summary"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("/v/demo.mp4", KindDescription); got != "/v/demo_description.txt" {
		t.Errorf("unexpected path %q", got)
	}
}
