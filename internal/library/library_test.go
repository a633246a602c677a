package library

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/mgpai22/captionkit/internal/config"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func names(videos []Video) []string {
	var out []string
	for _, v := range videos {
		out = append(out, v.Name())
	}
	return out
}

func TestVideoPaths(t *testing.T) {
	v := NewVideo("/lib/Talk.mp4")
	tests := []struct {
		got, want string
	}{
		{v.SRTPath(), "/lib/Talk.srt"},
		{v.TranscriptPath(), "/lib/Talk.txt"},
		{v.TitlePath(), "/lib/Talk_title.txt"},
		{v.DescriptionPath(), "/lib/Talk_description.txt"},
		{v.TagsPath(), "/lib/Talk_tags.txt"},
		{v.ThumbnailPath(), "/lib/Talk.jpg"},
		{v.TranslatedSRTPath(" FR "), "/lib/Talk_fr.srt"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mp4"), "")
	touch(t, filepath.Join(dir, "a.mkv"), "")
	touch(t, filepath.Join(dir, "a.srt"), "")
	touch(t, filepath.Join(dir, ".hidden.mp4"), "")
	touch(t, filepath.Join(dir, "sub", "c.webm"), "")
	touch(t, filepath.Join(dir, ".cache", "d.mp4"), "")

	flat, err := Scan(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := names(flat); !reflect.DeepEqual(got, []string{"a.mkv", "b.mp4"}) {
		t.Errorf("flat scan = %v", got)
	}

	deep, err := Scan(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := names(deep); !reflect.DeepEqual(got, []string{"a.mkv", "b.mp4", "c.webm"}) {
		t.Errorf("recursive scan = %v", got)
	}

	if _, err := Scan(filepath.Join(dir, "missing"), false); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestOrder(t *testing.T) {
	durations := map[string]time.Duration{
		"a.mp4": 3 * time.Minute,
		"b.mp4": time.Minute,
		"d.mp4": 2 * time.Minute,
	}
	duration := func(v Video) (time.Duration, error) {
		if d, ok := durations[v.Name()]; ok {
			return d, nil
		}
		return 0, errors.New("probe failed")
	}
	build := func() []Video {
		return []Video{NewVideo("d.mp4"), NewVideo("c.mp4"), NewVideo("a.mp4"), NewVideo("b.mp4")}
	}

	tests := []struct {
		order string
		want  []string
	}{
		{config.OrderName, []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4"}},
		{config.OrderShortestFirst, []string{"b.mp4", "d.mp4", "a.mp4", "c.mp4"}},
		{config.OrderLongestFirst, []string{"a.mp4", "d.mp4", "b.mp4", "c.mp4"}},
	}
	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			videos := build()
			Order(videos, tt.order, duration)
			if got := names(videos); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTranslatedSRT(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"talk_fr.srt", true},
		{"/x/Talk_DE.srt", true},
		{"talk.srt", false},
		{"my_talk.srt", false},
		{"talk_fr.txt", false},
		{"talk_xx.srt", false},
	}
	for _, tt := range tests {
		if got := IsTranslatedSRT(tt.path); got != tt.want {
			t.Errorf("IsTranslatedSRT(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestAssignChannels(t *testing.T) {
	dir := t.TempDir()
	videos := []Video{
		NewVideo(filepath.Join(dir, "Cloud Security basics.mp4")),
		NewVideo(filepath.Join(dir, "intro.mp4")),
		NewVideo(filepath.Join(dir, "misc one.mp4")),
		NewVideo(filepath.Join(dir, "misc two.mp4")),
	}
	touch(t, videos[1].TranscriptPath(), "Today we cover DATA SCIENCE workflows.")

	channels := []config.Channel{
		{Name: "Archive", Skip: true},
		{Name: "Data Science"},
		{Name: "Cloud Security"},
	}
	got := AssignChannels(videos, channels)
	want := []struct{ channel, match string }{
		{"Cloud Security", MatchFilename},
		{"Data Science", MatchTranscript},
		{"Data Science", MatchRotation},
		{"Cloud Security", MatchRotation},
	}
	for i, w := range want {
		if got[i].Channel != w.channel || got[i].Match != w.match {
			t.Errorf("video %d assigned %q (%s), want %q (%s)", i, got[i].Channel, got[i].Match, w.channel, w.match)
		}
	}

	none := AssignChannels(videos, []config.Channel{{Name: "Archive", Skip: true}})
	for _, a := range none {
		if a.Channel != "" {
			t.Errorf("expected no channel, got %q", a.Channel)
		}
	}
}

func TestWriteAssignmentsCSV(t *testing.T) {
	dir := t.TempDir()
	assignments := []Assignment{{Video: NewVideo(filepath.Join(dir, "a, b.mp4")), Channel: "News", Match: MatchRotation}}
	path, err := WriteAssignmentsCSV(dir, assignments)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][2] != "channel_name" || rows[1][1] != "a, b.mp4" || rows[1][2] != "News" {
		t.Errorf("unexpected csv rows %v", rows)
	}
}

func writeReady(t *testing.T, v Video, langs ...string) {
	t.Helper()
	touch(t, v.Path, "")
	touch(t, v.SRTPath(), "1\n00:00:00,000 --> 00:00:01,000\nhi\n")
	touch(t, v.TitlePath(), "A Title\n")
	touch(t, v.DescriptionPath(), "Some description.")
	touch(t, v.TagsPath(), "go, video ,  captions,")
	touch(t, v.ThumbnailPath(), "jpg")
	for _, lang := range langs {
		touch(t, v.TranslatedSRTPath(lang), "")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	v := NewVideo(filepath.Join(dir, "talk.mp4"))
	touch(t, v.Path, "")
	touch(t, v.SRTPath(), "")
	touch(t, v.TranslatedSRTPath("fr"), "")

	r := Check(v, []string{"French", "de", "fr"})
	want := []string{ArtifactTitle, ArtifactDescription, ArtifactTags, ArtifactThumbnail, "captions_de"}
	if r.Ready() || !reflect.DeepEqual(r.Missing, want) {
		t.Errorf("Missing = %v, want %v", r.Missing, want)
	}
}

func TestBuildAndWriteManifest(t *testing.T) {
	dir := t.TempDir()
	ready := NewVideo(filepath.Join(dir, "ready.mp4"))
	pending := NewVideo(filepath.Join(dir, "pending.mp4"))
	writeReady(t, ready, "fr")
	touch(t, pending.Path, "")

	videos := []Video{pending, ready}
	assignments := AssignChannels(videos, []config.Channel{{Name: "Talks"}})
	m, err := BuildManifest(dir, videos, assignments, ManifestOptions{SourceLanguage: "en", Languages: []string{"en", "fr"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Videos) != 1 || len(m.Skipped) != 1 {
		t.Fatalf("unexpected manifest %+v", m)
	}
	got := m.Videos[0]
	if got.File != "ready.mp4" || got.Title != "A Title" || got.Channel != "Talks" {
		t.Errorf("unexpected entry %+v", got)
	}
	if !reflect.DeepEqual(got.Tags, []string{"go", "video", "captions"}) {
		t.Errorf("tags = %v", got.Tags)
	}
	wantCaptions := map[string]string{"English": "ready.srt", "French": "ready_fr.srt"}
	if !reflect.DeepEqual(got.Captions, wantCaptions) {
		t.Errorf("captions = %v", got.Captions)
	}
	if m.Skipped[0].File != "pending.mp4" {
		t.Errorf("unexpected skipped %+v", m.Skipped)
	}

	path, err := WriteManifest(dir, m)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#") {
		t.Error("manifest should start with a header comment")
	}
	var back Manifest
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("manifest is not valid yaml: %v", err)
	}
	if !reflect.DeepEqual(back.Videos, m.Videos) {
		t.Errorf("manifest did not survive a reload: %+v", back.Videos)
	}
}
