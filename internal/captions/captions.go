package captions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/logging"
	"github.com/mgpai22/captionkit/internal/media"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

// ErrNoSpeech is returned when a provider produced no usable segments.
var ErrNoSpeech = errors.New("no speech segments produced")

// interface for media to timed text
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) ([]subtitle.Segment, error)
}

// caption generation provider
type Provider string

const (
	ProviderWhisperX Provider = "whisperx"
	ProviderOpenAI   Provider = "openai"
	ProviderGemini   Provider = "gemini"
)

// transcription options
type Options struct {
	Language string // source language code
	Model    string
	Prompt   string
	CUDA     bool   // whisperx only
	Command  string // whisperx launcher, usually uvx
}

// creates Transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	processor media.Processor,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderWhisperX, "":
		return NewWhisperX(opts), nil
	case ProviderOpenAI:
		return NewOpenAITranscriber(apiKey, processor, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, processor, opts)
	default:
		return nil, fmt.Errorf("unsupported captions provider: %s", provider)
	}
}

type Result struct {
	SRTPath        string
	TranscriptPath string
	Source         string // provider name, "downloaded", or "existing"
	Segments       int
	Skipped        bool
}

// writes <base>.srt and <base>.txt for a media file
type Service struct {
	transcriber      Transcriber
	formatter        *subtitle.DefaultGenerator
	logger           *logging.Logger
	language         string
	preferDownloaded bool
}

type ServiceOption func(*Service)

// WithDownloadedCaptions makes Generate reuse a <base>.<lang>.vtt written by
// yt-dlp before running the transcriber.
func WithDownloadedCaptions(lang string) ServiceOption {
	return func(s *Service) {
		s.preferDownloaded = true
		if lang != "" {
			s.language = language.Normalize(lang)
		}
	}
}

// WithMaxCharsPerLine sets the wrap width of generated entries.
func WithMaxCharsPerLine(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.formatter.MaxCharsPerLine = n
		}
	}
}

func NewService(
	transcriber Transcriber,
	logger *logging.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		transcriber: transcriber,
		formatter:   subtitle.NewDefaultGenerator(),
		logger:      logger,
		language:    "en",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func basePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Generate produces <base>.srt for mediaPath unless it already exists, and
// makes sure the <base>.txt companion is present either way.
func (s *Service) Generate(ctx context.Context, mediaPath string) (*Result, error) {
	base := basePath(mediaPath)
	result := &Result{
		SRTPath:        base + ".srt",
		TranscriptPath: base + ".txt",
	}

	if _, err := os.Stat(result.SRTPath); err == nil {
		written, err := EnsureTranscript(result.SRTPath)
		if err != nil {
			return nil, err
		}
		if written {
			s.logger.Infow("transcript written", "output", result.TranscriptPath)
		}
		result.Source = "existing"
		result.Skipped = true
		return result, nil
	}

	var (
		entries []subtitle.Entry
		err     error
	)
	if s.preferDownloaded {
		entries, result.Source, err = s.fromDownloaded(base)
		if err != nil {
			s.logger.Warnw("ignoring downloaded captions", "error", err)
		}
	}

	if len(entries) == 0 {
		if _, err := os.Stat(mediaPath); err != nil {
			return nil, fmt.Errorf("media file not found: %s", mediaPath)
		}
		if s.transcriber == nil {
			return nil, fmt.Errorf("no transcriber configured for %s", mediaPath)
		}
		s.logger.Infow("transcribing media", "input", mediaPath)
		segments, err := s.transcriber.Transcribe(ctx, mediaPath)
		if err != nil {
			return nil, fmt.Errorf("transcribe %s: %w", mediaPath, err)
		}
		entries = s.formatter.Generate(segments)
		result.Source = transcriberName(s.transcriber)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSpeech, mediaPath)
	}

	if err := subtitle.WriteSRT(result.SRTPath, entries); err != nil {
		return nil, fmt.Errorf("failed to write captions: %w", err)
	}
	if err := subtitle.WriteProjection(result.TranscriptPath, entries); err != nil {
		return nil, fmt.Errorf("failed to write transcript: %w", err)
	}

	result.Segments = len(entries)
	s.logger.Infow("captions written",
		"output", result.SRTPath,
		"source", result.Source,
		"segments", result.Segments,
	)
	return result, nil
}

func (s *Service) fromDownloaded(base string) ([]subtitle.Entry, string, error) {
	path := FindDownloadedVTT(base, s.language)
	if path == "" {
		return nil, "", nil
	}
	sub, err := subtitle.ParseVTTFile(path)
	if err != nil {
		return nil, "", err
	}
	s.logger.Infow("using downloaded captions", "input", path)
	entries := s.formatter.Generate(subtitle.SegmentsFromEntries(sub.Entries))
	return entries, "downloaded", nil
}

// FindDownloadedVTT looks for the subtitle yt-dlp writes next to a video:
// <base>.<lang>.vtt, or a regional variant such as <base>.en-US.vtt.
func FindDownloadedVTT(base, lang string) string {
	exact := base + "." + lang + ".vtt"
	if _, err := os.Stat(exact); err == nil {
		return exact
	}
	matches, err := filepath.Glob(globEscape(base) + "." + lang + "-*.vtt")
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

func globEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// EnsureTranscript writes the <base>.txt projection of srtPath when it is
// missing. It reports whether a file was written.
func EnsureTranscript(srtPath string) (bool, error) {
	txtPath := basePath(srtPath) + ".txt"
	if _, err := os.Stat(txtPath); err == nil {
		return false, nil
	}
	if err := WriteTranscript(srtPath, txtPath); err != nil {
		return false, err
	}
	return true, nil
}

// WriteTranscript projects a subtitle file (SRT or WebVTT) to outputPath,
// one line per entry.
func WriteTranscript(srtPath, outputPath string) error {
	sub, err := subtitle.Open(srtPath)
	if err != nil {
		return err
	}
	if err := subtitle.WriteProjection(outputPath, sub.Entries); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

func transcriberName(t Transcriber) string {
	switch t.(type) {
	case *WhisperX:
		return string(ProviderWhisperX)
	case *OpenAITranscriber:
		return string(ProviderOpenAI)
	case *GeminiTranscriber:
		return string(ProviderGemini)
	default:
		return "transcriber"
	}
}
