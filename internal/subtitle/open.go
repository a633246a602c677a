package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Open parses a subtitle file, dispatching on its extension.
func Open(path string) (*Subtitle, error) {
	switch GetFormatFromExtension(path) {
	case FormatSRT:
		return ParseSRTFile(path)
	case FormatVTT:
		return ParseVTTFile(path)
	default:
		return nil, fmt.Errorf(
			"unsupported subtitle format: %s",
			strings.ToLower(filepath.Ext(path)),
		)
	}
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	default:
		return ""
	}
}
