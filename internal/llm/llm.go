package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// interface for single-prompt text generation
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// text generation provider
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

const DefaultOllamaBaseURL = "http://localhost:11434/v1/"

type Options struct {
	Model     string
	BaseURL   string        // OpenAI-compatible endpoint; required for ollama
	Timeout   time.Duration // per request, 0 for none
	MaxTokens int64         // anthropic only
}

// creates Generator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Generator, error) {
	switch provider {
	case ProviderOllama:
		return NewOllamaGenerator(opts)
	case ProviderOpenAI:
		return NewOpenAIGenerator(apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicGenerator(apiKey, opts)
	case ProviderGemini:
		return NewGeminiGenerator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// IsRetryable reports whether a provider error is transient: request
// timeouts, rate limits, server errors, and network timeouts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return retryableStatus(openaiErr.StatusCode)
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return retryableStatus(anthropicErr.StatusCode)
	}
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return retryableStatus(geminiErr.Code)
	}

	// per-request timeouts surface as deadline errors
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// ErrEmptyResponse is returned when a provider answers without text.
var ErrEmptyResponse = errors.New("empty response from model")

var (
	codeFenceRegex = regexp.MustCompile("```[a-zA-Z]*[ \\t]*\\n?")
	thinkRegex     = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// CleanResponse removes wrappers models commonly add around an answer:
// reasoning blocks, code fences, and the text delimiters used in prompts.
func CleanResponse(s string) string {
	s = thinkRegex.ReplaceAllString(s, "")
	s = codeFenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.ReplaceAll(s, "<start_of_text>", "")
	s = strings.ReplaceAll(s, "<end_of_text>", "")
	return strings.Trim(s, " \t\r\n")
}

func withTimeout(
	ctx context.Context,
	timeout time.Duration,
) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
