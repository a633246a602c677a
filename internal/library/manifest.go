package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"bitbucket.org/creachadair/stringset"
	"github.com/creachadair/atomicfile"
	yaml "gopkg.in/yaml.v3"

	"github.com/mgpai22/captionkit/internal/language"
)

// ManifestFile is written into the library folder by WriteManifest.
const ManifestFile = "_upload_manifest.yaml"

// artifact names reported by Check
const (
	ArtifactCaptions    = "captions"
	ArtifactTitle       = "title"
	ArtifactDescription = "description"
	ArtifactTags        = "tags"
	ArtifactThumbnail   = "thumbnail"
)

// Readiness lists the artifacts a video is still missing.
type Readiness struct {
	Video   Video
	Missing []string
}

func (r Readiness) Ready() bool { return len(r.Missing) == 0 }

// Check reports which upload artifacts are missing for v. Every language in
// langs needs a translated subtitle, reported as captions_<lang>.
func Check(v Video, langs []string) Readiness {
	r := Readiness{Video: v}
	for _, a := range []struct {
		name, path string
	}{
		{ArtifactTitle, v.TitlePath()},
		{ArtifactCaptions, v.SRTPath()},
		{ArtifactDescription, v.DescriptionPath()},
		{ArtifactTags, v.TagsPath()},
		{ArtifactThumbnail, v.ThumbnailPath()},
	} {
		if !exists(a.path) {
			r.Missing = append(r.Missing, a.name)
		}
	}
	for _, lang := range languageSet(langs).Elements() {
		if !exists(v.TranslatedSRTPath(lang)) {
			r.Missing = append(r.Missing, ArtifactCaptions+"_"+lang)
		}
	}
	return r
}

func languageSet(langs []string) stringset.Set {
	return stringset.New(language.NormalizeList(langs)...)
}

type Manifest struct {
	Videos  []ManifestVideo   `yaml:"videos"`
	Skipped []ManifestSkipped `yaml:"skipped,omitempty"`
}

type ManifestVideo struct {
	File        string            `yaml:"file"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Tags        []string          `yaml:"tags,omitempty"`
	Thumbnail   string            `yaml:"thumbnail"`
	Captions    map[string]string `yaml:"captions"`
	Channel     string            `yaml:"channel,omitempty"`
}

type ManifestSkipped struct {
	File    string   `yaml:"file"`
	Missing []string `yaml:"missing"`
}

// ManifestOptions names the caption languages expected for each video.
type ManifestOptions struct {
	SourceLanguage string
	Languages      []string
}

// BuildManifest lists every ready video with its metadata. Paths are made
// relative to dir so the manifest can move with the folder.
func BuildManifest(dir string, videos []Video, assignments []Assignment, opts ManifestOptions) (*Manifest, error) {
	channels := make(map[string]string, len(assignments))
	for _, a := range assignments {
		channels[a.Video.Path] = a.Channel
	}

	source := language.Normalize(opts.SourceLanguage)
	langs := languageSet(opts.Languages)
	if source != "" {
		langs.Discard(source)
	}

	m := &Manifest{Videos: []ManifestVideo{}}
	for _, v := range videos {
		ready := Check(v, langs.Elements())
		if !ready.Ready() {
			m.Skipped = append(m.Skipped, ManifestSkipped{File: rel(dir, v.Path), Missing: ready.Missing})
			continue
		}

		entry := ManifestVideo{
			File:      rel(dir, v.Path),
			Thumbnail: rel(dir, v.ThumbnailPath()),
			Captions:  map[string]string{},
			Channel:   channels[v.Path],
		}
		var err error
		if entry.Title, err = readTrimmed(v.TitlePath()); err != nil {
			return nil, fmt.Errorf("read title for %s: %w", v.Name(), err)
		}
		if entry.Description, err = readTrimmed(v.DescriptionPath()); err != nil {
			return nil, fmt.Errorf("read description for %s: %w", v.Name(), err)
		}
		tags, err := readTrimmed(v.TagsPath())
		if err != nil {
			return nil, fmt.Errorf("read tags for %s: %w", v.Name(), err)
		}
		entry.Tags = splitTags(tags)

		sourceName := "Original"
		if source != "" {
			sourceName = language.DisplayName(source)
		}
		entry.Captions[sourceName] = rel(dir, v.SRTPath())
		for _, lang := range langs.Elements() {
			entry.Captions[language.DisplayName(lang)] = rel(dir, v.TranslatedSRTPath(lang))
		}
		m.Videos = append(m.Videos, entry)
	}
	return m, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func rel(dir, path string) string {
	if r, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}

// WriteManifest writes m to dir/_upload_manifest.yaml, replacing any
// previous manifest, and returns the path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	path := filepath.Join(dir, ManifestFile)
	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return "", err
	}
	defer f.Cancel()
	fmt.Fprintln(f, "# generated by captionkit; edits are overwritten")
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return path, f.Close()
}
