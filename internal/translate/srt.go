package translate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/captionkit/internal/logging"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

// ErrMissingInput is returned when the source subtitle or its flat-text
// companion is absent.
var ErrMissingInput = errors.New("missing translation input")

// ErrNoSegments is returned when the source subtitle has no entries.
var ErrNoSegments = errors.New("subtitle has no segments")

type Result struct {
	OutputPath string
	Skipped    bool
	Segments   int
	Warnings   []subtitle.Warning
}

// translates whole subtitle files through a Translator
type Service struct {
	translator        Translator
	logger            *logging.Logger
	requireTranscript bool
}

type ServiceOption func(*Service)

// WithoutTranscript computes the flat text from the subtitle when the
// <base>.txt companion is missing instead of failing.
func WithoutTranscript() ServiceOption {
	return func(s *Service) {
		s.requireTranscript = false
	}
}

func NewService(
	translator Translator,
	logger *logging.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		translator:        translator,
		logger:            logger,
		requireTranscript: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OutputPath returns <base>_<lang>.srt for srtPath.
func OutputPath(srtPath, lang string) string {
	return basePath(srtPath) + "_" + strings.ToLower(strings.TrimSpace(lang)) + ".srt"
}

// TranscriptPath returns the <base>.txt companion of srtPath.
func TranscriptPath(srtPath string) string {
	return basePath(srtPath) + ".txt"
}

func basePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// TranslateSRT translates srtPath into lang and writes <base>_<lang>.srt.
// An existing output is left untouched and reported as skipped.
func (s *Service) TranslateSRT(
	ctx context.Context,
	srtPath, lang string,
) (*Result, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil, fmt.Errorf("target language is required")
	}
	outputPath := OutputPath(srtPath, lang)

	if _, err := os.Stat(outputPath); err == nil {
		s.logger.Debugw("translation already exists", "output", outputPath)
		return &Result{OutputPath: outputPath, Skipped: true}, nil
	}

	sub, err := subtitle.ParseSRTFile(srtPath)
	if err != nil {
		if errors.Is(err, subtitle.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrMissingInput, err)
		}
		return nil, err
	}
	entries := sub.Entries
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSegments, srtPath)
	}

	result := &Result{OutputPath: outputPath, Segments: len(entries)}

	flat, err := s.flatText(srtPath, entries, result)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("translating subtitle",
		"input", srtPath,
		"language", lang,
		"segments", len(entries),
	)

	translated, err := s.translator.Translate(ctx, flat, lang)
	if err != nil {
		return nil, fmt.Errorf("translate %s to %s: %w", srtPath, lang, err)
	}

	aligned, warnings := subtitle.Realign(entries, translated)
	result.Warnings = append(result.Warnings, warnings...)
	for _, w := range warnings {
		s.logWarning(w, outputPath)
	}

	if err := subtitle.WriteSRT(outputPath, aligned); err != nil {
		return nil, fmt.Errorf("failed to write translated subtitle: %w", err)
	}

	s.logger.Infow("translation written",
		"output", outputPath,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (s *Service) flatText(
	srtPath string,
	entries []subtitle.Entry,
	result *Result,
) (string, error) {
	txtPath := TranscriptPath(srtPath)
	data, err := os.ReadFile(txtPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read transcript: %w", err)
		}
		if s.requireTranscript {
			return "", fmt.Errorf("%w: %w: %s", ErrMissingInput, subtitle.ErrNotFound, txtPath)
		}
		s.logger.Debugw("transcript missing, projecting subtitle", "transcript", txtPath)
		return subtitle.Project(entries), nil
	}

	// only the terminator WriteProjection adds; earlier newlines are blank segments
	flat := strings.TrimSuffix(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if lines := len(subtitle.SplitLines(flat)); lines != len(entries) {
		w := subtitle.Warning{
			Kind:     subtitle.WarnTranscriptMismatch,
			Expected: len(entries),
			Got:      lines,
		}
		result.Warnings = append(result.Warnings, w)
		s.logWarning(w, txtPath)
	}
	return flat, nil
}

func (s *Service) logWarning(w subtitle.Warning, path string) {
	switch w.Kind {
	case subtitle.WarnMissingSegment:
		s.logger.Warnw("missing translation for segment",
			"segment", w.Index,
			"file", path,
		)
	default:
		s.logger.Warnw(w.String(),
			"kind", string(w.Kind),
			"expected", w.Expected,
			"got", w.Got,
			"file", path,
		)
	}
}
