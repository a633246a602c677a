// Package library works with a folder of videos and the artifacts the
// other stages write next to each one.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mgpai22/captionkit/internal/config"
	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/media"
)

// Video is a media file plus the names of its sibling artifacts.
type Video struct {
	Path string
	Base string // Path without extension
}

func NewVideo(path string) Video {
	return Video{Path: path, Base: strings.TrimSuffix(path, filepath.Ext(path))}
}

func (v Video) Name() string            { return filepath.Base(v.Path) }
func (v Video) SRTPath() string         { return v.Base + ".srt" }
func (v Video) TranscriptPath() string  { return v.Base + ".txt" }
func (v Video) TitlePath() string       { return v.Base + "_title.txt" }
func (v Video) DescriptionPath() string { return v.Base + "_description.txt" }
func (v Video) TagsPath() string        { return v.Base + "_tags.txt" }
func (v Video) ThumbnailPath() string   { return v.Base + ".jpg" }

// TranslatedSRTPath returns <base>_<lang>.srt.
func (v Video) TranslatedSRTPath(lang string) string {
	return v.Base + "_" + strings.ToLower(strings.TrimSpace(lang)) + ".srt"
}

// Scan lists the videos in dir sorted by path. Hidden directories are not
// descended into.
func Scan(dir string, recursive bool) ([]Video, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", dir)
	}

	var videos []Video
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !media.IsVideoFile(path) {
			return nil
		}
		videos = append(videos, NewVideo(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	sort.Slice(videos, func(i, j int) bool { return videos[i].Path < videos[j].Path })
	return videos, nil
}

// DurationFunc reports the length of a video.
type DurationFunc func(Video) (time.Duration, error)

// Order sorts videos in place by the pipeline order. Videos whose duration
// cannot be read keep name order after the ones that can.
func Order(videos []Video, order string, duration DurationFunc) {
	if order == config.OrderName || order == "" || duration == nil {
		sort.SliceStable(videos, func(i, j int) bool { return videos[i].Path < videos[j].Path })
		return
	}

	known := make(map[string]time.Duration, len(videos))
	for _, v := range videos {
		if d, err := duration(v); err == nil {
			known[v.Path] = d
		}
	}

	longest := order == config.OrderLongestFirst
	sort.SliceStable(videos, func(i, j int) bool {
		di, iok := known[videos[i].Path]
		dj, jok := known[videos[j].Path]
		switch {
		case iok != jok:
			return iok
		case !iok || di == dj:
			return videos[i].Path < videos[j].Path
		case longest:
			return di > dj
		default:
			return di < dj
		}
	})
}

// IsTranslatedSRT reports whether path is a translation output such as
// talk_fr.srt, so it is not treated as a source subtitle.
func IsTranslatedSRT(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if filepath.Ext(name) != ".srt" {
		return false
	}
	stem := strings.TrimSuffix(name, ".srt")
	i := strings.LastIndex(stem, "_")
	if i < 0 {
		return false
	}
	return language.IsKnownSuffix(stem[i+1:])
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
