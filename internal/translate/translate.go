package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/llm"
	"github.com/mgpai22/captionkit/internal/retry"
)

// interface for newline-preserving text translation. The result should
// have one line per input line but callers must not rely on it.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

type Options struct {
	SourceLanguage string // code or name, defaults to English
	Prompt         string // additional instructions appended to the prompt
	Retry          retry.Policy
}

// implements Translator with a text generation model
type LLMTranslator struct {
	generator llm.Generator
	options   Options
}

func NewLLMTranslator(generator llm.Generator, opts Options) *LLMTranslator {
	if opts.SourceLanguage == "" {
		opts.SourceLanguage = "en"
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = llm.IsRetryable
	}
	return &LLMTranslator{generator: generator, options: opts}
}

func (t *LLMTranslator) Translate(
	ctx context.Context,
	text, targetLanguage string,
) (string, error) {
	if strings.TrimSpace(targetLanguage) == "" {
		return "", fmt.Errorf("target language is required")
	}

	prompt := BuildPrompt(
		language.DisplayName(t.options.SourceLanguage),
		language.DisplayName(targetLanguage),
		text,
		t.options.Prompt,
	)

	var response string
	err := t.options.Retry.Do(ctx, "translate", func(ctx context.Context) error {
		out, err := t.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		response = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}

	return NormalizeResponse(response), nil
}

// BuildPrompt creates the line-preserving translation prompt.
func BuildPrompt(source, target, text, extra string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"Translate this from %s to %s and make sure to keep the original line breaks. ",
		source,
		target,
	)
	sb.WriteString("You must return the exact same number of lines as the original text. ")
	sb.WriteString("Return only the translation, one translated line per original line.")
	if extra != "" {
		sb.WriteString(" ")
		sb.WriteString(extra)
	}
	sb.WriteString("\n<start_of_text>\n")
	sb.WriteString(text)
	sb.WriteString("\n<end_of_text>")
	return sb.String()
}

// NormalizeResponse converts line endings and trims every line. One final
// line terminator is not a line of its own.
func NormalizeResponse(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
