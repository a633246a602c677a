// Package metadata generates the title, description, and tags of a video
// from its caption transcript.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/creachadair/stringset"
	"github.com/creachadair/atomicfile"

	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/llm"
	"github.com/mgpai22/captionkit/internal/logging"
	"github.com/mgpai22/captionkit/internal/retry"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

// ErrEmptyTranscript is returned when the captions hold no text to
// describe.
var ErrEmptyTranscript = errors.New("transcript is empty")

type Kind string

const (
	KindTitle       Kind = "title"
	KindDescription Kind = "description"
	KindTags        Kind = "tags"
)

// Kinds lists every metadata file in generation order.
var Kinds = []Kind{KindTitle, KindDescription, KindTags}

// ParseKind accepts a kind name in any case.
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch k {
	case KindTitle, KindDescription, KindTags:
		return k, nil
	default:
		return "", fmt.Errorf("unknown metadata kind %q (want title, description, or tags)", value)
	}
}

type Options struct {
	Language   string   // output language code, defaults to English
	AvoidTerms []string // terms the model must leave out
	MaxTags    int      // 0 keeps every tag
	Retry      retry.Policy
}

type Result struct {
	Kind       Kind
	OutputPath string
	Value      string
	Skipped    bool
}

type Service struct {
	generator llm.Generator
	logger    *logging.Logger
	options   Options
}

func NewService(generator llm.Generator, logger *logging.Logger, opts Options) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = llm.IsRetryable
	}
	return &Service{generator: generator, logger: logger, options: opts}
}

// OutputPath returns <base>_<kind>.txt for mediaPath.
func OutputPath(mediaPath string, kind Kind) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + "_" + string(kind) + ".txt"
}

func captionsPath(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
}

// GenerateAll runs Generate for each kind, reading the transcript once.
// Kinds default to Kinds.
func (s *Service) GenerateAll(ctx context.Context, mediaPath string, kinds ...Kind) ([]*Result, error) {
	if len(kinds) == 0 {
		kinds = Kinds
	}

	var (
		results    []*Result
		transcript string
	)
	for _, kind := range kinds {
		outputPath := OutputPath(mediaPath, kind)
		if _, err := os.Stat(outputPath); err == nil {
			results = append(results, &Result{Kind: kind, OutputPath: outputPath, Skipped: true})
			continue
		}
		if transcript == "" {
			t, err := LoadTranscript(captionsPath(mediaPath))
			if err != nil {
				return results, err
			}
			transcript = t
		}
		res, err := s.generate(ctx, kind, transcript, outputPath)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Generate writes one metadata file for mediaPath. An existing file is
// left untouched and reported as skipped.
func (s *Service) Generate(ctx context.Context, mediaPath string, kind Kind) (*Result, error) {
	results, err := s.GenerateAll(ctx, mediaPath, kind)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (s *Service) generate(ctx context.Context, kind Kind, transcript, outputPath string) (*Result, error) {
	prompt := BuildPrompt(kind, transcript, language.DisplayName(s.options.Language), s.options.AvoidTerms)

	var response string
	err := s.options.Retry.Do(ctx, "generate "+string(kind), func(ctx context.Context) error {
		out, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		response = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind, err)
	}

	var value string
	switch kind {
	case KindTags:
		tags := NormalizeTags(response, s.options.MaxTags, s.options.AvoidTerms)
		if len(tags) == 0 {
			return nil, fmt.Errorf("generate %s: %w", kind, llm.ErrEmptyResponse)
		}
		value = strings.Join(tags, ", ")
	case KindTitle:
		value = NormalizeTitle(response)
	default:
		value = NormalizeText(response)
	}
	if value == "" {
		return nil, fmt.Errorf("generate %s: %w", kind, llm.ErrEmptyResponse)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := atomicfile.WriteData(outputPath, []byte(value), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", kind, err)
	}

	s.logger.Infow("metadata written", "kind", string(kind), "output", outputPath)
	return &Result{Kind: kind, OutputPath: outputPath, Value: value}, nil
}

// LoadTranscript reads srtPath and joins its text into one paragraph.
func LoadTranscript(srtPath string) (string, error) {
	sub, err := subtitle.ParseSRTFile(srtPath)
	if err != nil {
		return "", err
	}
	transcript := subtitle.Transcript(sub.Entries)
	if transcript == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyTranscript, srtPath)
	}
	return transcript, nil
}

var instructions = map[Kind][]string{
	KindTitle: {
		"Generate a title, in %s, for this video.",
		"DO NOT output anything else than the title.",
		"DO NOT share your reasoning.",
		"Make sure the title is not too long (it will be displayed in a video portal).",
	},
	KindDescription: {
		"Generate a description, in %s, for this video.",
		"DO NOT output anything else than the description.",
		"DO NOT share your reasoning.",
		"OUTPUT ONLY THE DESCRIPTION, which will be displayed as is in the video portal.",
		"Make sure the description is concise but informative.",
	},
	KindTags: {
		"Generate tags, in %s, for this video.",
		"Each tag should be two words maximum, but ideally one word.",
		"Tags can be both what type of video it is and what it's about.",
		"DO NOT output anything else than the tags.",
		"DO NOT share your reasoning.",
		"Make sure the tags are relevant and concise.",
		"Separate tags with commas.",
	},
}

// BuildPrompt creates the prompt for one metadata kind.
func BuildPrompt(kind Kind, transcript, outputLanguage string, avoid []string) string {
	var sb strings.Builder
	sb.WriteString("The content provided below between the <transcript> tags is a transcript of a video.\n")
	for i, line := range instructions[kind] {
		if i == 0 {
			line = fmt.Sprintf(line, outputLanguage)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		if i == 0 {
			for _, term := range avoid {
				if term = strings.TrimSpace(term); term != "" {
					fmt.Fprintf(&sb, "DO NOT include '%s' in the %s.\n", term, kind)
				}
			}
		}
	}
	sb.WriteString("\n<transcript>\n")
	sb.WriteString(transcript)
	sb.WriteString("\n</transcript>\n")
	return sb.String()
}

// NormalizeText trims every line and the result.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// NormalizeTitle keeps the first non-empty line without wrapping quotes or
// a "Title:" label.
func NormalizeTitle(s string) string {
	for _, line := range strings.Split(NormalizeText(s), "\n") {
		if line == "" {
			continue
		}
		if head, rest, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(head), "title") {
			line = strings.TrimSpace(rest)
		}
		return strings.Trim(line, "\"'*")
	}
	return ""
}

// NormalizeTags splits a model answer on commas and newlines, strips list
// markers, drops duplicates (ignoring case) and avoided terms, and keeps at
// most max tags.
func NormalizeTags(s string, max int, avoid []string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	avoided := stringset.New()
	for _, term := range avoid {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			avoided.Add(term)
		}
	}

	seen := stringset.New()
	var tags []string
	for _, field := range fields {
		tag := strings.TrimSpace(field)
		tag = strings.TrimLeft(tag, "#-*• ")
		tag = strings.Trim(tag, "\"'.")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen.Contains(key) || containsAny(key, avoided) {
			continue
		}
		seen.Add(key)
		tags = append(tags, tag)
		if max > 0 && len(tags) == max {
			break
		}
	}
	return tags
}

func containsAny(s string, terms stringset.Set) bool {
	_, found := terms.Choose(func(term string) bool {
		return strings.Contains(s, term)
	})
	return found
}
