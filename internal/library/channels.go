package library

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/creachadair/atomicfile"

	"github.com/mgpai22/captionkit/internal/config"
)

// AssignmentsFile is written into the library folder by WriteAssignmentsCSV.
const AssignmentsFile = "_channel_assignments.csv"

// how a channel was chosen
const (
	MatchFilename   = "filename"
	MatchTranscript = "transcript"
	MatchRotation   = "rotation"
)

type Assignment struct {
	Video   Video
	Channel string
	Match   string
}

// AssignChannels picks a channel for each video: the first channel whose
// name appears in the file name, else the first whose name appears in the
// transcript, else channels in rotation by the video's position. Channels
// marked Skip are never assigned. With no usable channels the result has
// empty channel names.
func AssignChannels(videos []Video, channels []config.Channel) []Assignment {
	var usable []string
	for _, c := range channels {
		if !c.Skip && strings.TrimSpace(c.Name) != "" {
			usable = append(usable, c.Name)
		}
	}

	out := make([]Assignment, len(videos))
	for i, v := range videos {
		out[i] = Assignment{Video: v}
		if len(usable) == 0 {
			continue
		}
		if name := firstMention(usable, strings.ToLower(v.Name())); name != "" {
			out[i].Channel, out[i].Match = name, MatchFilename
			continue
		}
		if text, err := readTrimmed(v.TranscriptPath()); err == nil && text != "" {
			if name := firstMention(usable, strings.ToLower(text)); name != "" {
				out[i].Channel, out[i].Match = name, MatchTranscript
				continue
			}
		}
		out[i].Channel, out[i].Match = usable[i%len(usable)], MatchRotation
	}
	return out
}

func firstMention(names []string, haystack string) string {
	for _, name := range names {
		if strings.Contains(haystack, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

// WriteAssignmentsCSV writes the assignments to dir/_channel_assignments.csv
// and returns the path.
func WriteAssignmentsCSV(dir string, assignments []Assignment) (string, error) {
	path := filepath.Join(dir, AssignmentsFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return "", err
	}
	defer f.Cancel()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"video_path", "video_name", "channel_name", "match"}); err != nil {
		return "", err
	}
	for _, a := range assignments {
		if err := w.Write([]string{a.Video.Path, a.Video.Name(), a.Channel, a.Match}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}
