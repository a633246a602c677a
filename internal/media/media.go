package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/captionkit/internal/ffmpeg"
)

// defines interface for the ffmpeg operations the pipeline needs
type Processor interface {
	// probes the container duration
	Duration(ctx context.Context, path string) (time.Duration, error)

	// extracts the audio track into outputPath
	ExtractAudio(ctx context.Context, inputPath, outputPath string, opts AudioOptions) error

	// writes a single jpeg frame taken at the given offset
	ExtractFrame(ctx context.Context, inputPath string, at time.Duration, outputPath string) error
}

// settings for audio extraction
type AudioOptions struct {
	Format     string // mp3, aac, flac, wav
	SampleRate int    // Hz
	Channels   int    // 1=mono, 2=stereo
	Bitrate    string // e.g. "64k"
}

// defaults for speech recognition uploads
func DefaultAudioOptions() AudioOptions {
	return AudioOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

// ffmpeg backed Processor
type FFmpeg struct {
	locator *ffmpegbin.Locator
}

func NewFFmpeg(locator *ffmpegbin.Locator) *FFmpeg {
	if locator == nil {
		locator = ffmpegbin.NewLocator("")
	}
	return &FFmpeg{locator: locator}
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", path)
	}

	ffprobePath, err := p.locator.FFprobePath(ctx)
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeDuration(out.Bytes())
}

func parseProbeDuration(data []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %v", seconds)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

func (p *FFmpeg) ExtractAudio(
	ctx context.Context,
	inputPath, outputPath string,
	opts AudioOptions,
) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := p.locator.FFmpegPath(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = ffmpeg.Input(inputPath).
		Output(outputPath, audioKwArgs(opts)).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}

	return nil
}

func audioKwArgs(opts AudioOptions) ffmpeg.KwArgs {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.Channels <= 0 {
		opts.Channels = 1
	}

	kwargs := ffmpeg.KwArgs{
		"vn": "",              // No video
		"ar": opts.SampleRate, // Sample rate
		"ac": opts.Channels,   // Channels
	}

	switch opts.Format {
	case "aac":
		kwargs["acodec"] = "aac"
	case "flac":
		kwargs["acodec"] = "flac"
	case "wav":
		kwargs["acodec"] = "pcm_s16le"
	default:
		kwargs["acodec"] = "libmp3lame"
	}

	switch opts.Format {
	case "flac", "wav":
	default:
		if opts.Bitrate != "" {
			kwargs["b:a"] = opts.Bitrate
		}
	}

	return kwargs
}

func (p *FFmpeg) ExtractFrame(
	ctx context.Context,
	inputPath string,
	at time.Duration,
	outputPath string,
) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if at < 0 {
		at = 0
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := p.locator.FFmpegPath(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// seeking on the input keeps extraction fast on long videos
	err = ffmpeg.Input(inputPath, ffmpeg.KwArgs{"ss": formatSeek(at)}).
		Output(outputPath, ffmpeg.KwArgs{"vframes": 1, "q:v": 2}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return fmt.Errorf("frame extraction at %s failed: %w", formatSeek(at), err)
	}

	return nil
}

func formatSeek(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}
