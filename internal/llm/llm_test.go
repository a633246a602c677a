package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

func TestFactoryReturnsGenerators(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		provider Provider
		check    func(Generator) bool
	}{
		{ProviderOllama, func(g Generator) bool { _, ok := g.(*OpenAIGenerator); return ok }},
		{ProviderOpenAI, func(g Generator) bool { _, ok := g.(*OpenAIGenerator); return ok }},
		{ProviderAnthropic, func(g Generator) bool { _, ok := g.(*AnthropicGenerator); return ok }},
		{ProviderGemini, func(g Generator) bool { _, ok := g.(*GeminiGenerator); return ok }},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			g, err := Factory(ctx, tt.provider, "fake-key", Options{})
			if err != nil {
				t.Fatalf("Factory(%s) returned error: %v", tt.provider, err)
			}
			if !tt.check(g) {
				t.Errorf("unexpected generator type %T", g)
			}
		})
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	if _, err := Factory(context.Background(), Provider("unknown"), "k", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestHostedProvidersRequireKey(t *testing.T) {
	for _, p := range []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		if _, err := Factory(context.Background(), p, "", Options{}); err == nil {
			t.Errorf("%s: expected error without API key", p)
		}
	}
}

func TestOllamaDefaults(t *testing.T) {
	g, err := NewOllamaGenerator(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Model() != "llama3.2" {
		t.Errorf("unexpected default model %q", g.Model())
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "  Bonjour\nMonde \n", "Bonjour\nMonde"},
		{"code fence", "```\nBonjour\nMonde\n```", "Bonjour\nMonde"},
		{"json fence", "```json\n[1]\n```", "[1]"},
		{"markers", "<start_of_text>\nHola\n<end_of_text>", "Hola"},
		{"reasoning", "<think>\nlet me see\n</think>\nHallo", "Hallo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanResponse(tt.input); got != tt.want {
				t.Errorf("CleanResponse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type seg struct {
		Start float64 `json:"start"`
		Text  string  `json:"text"`
	}
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"plain array", `[{"start": 0, "text": "a"}, {"start": 1, "text": "b"}]`, 2, false},
		{"preamble", "Here you go:\n[{\"start\": 0, \"text\": \"a\"}]", 1, false},
		{"fenced", "```json\n[{\"start\": 0, \"text\": \"a\"}]\n```", 1, false},
		{"invalid escape", `[{"start": 0, "text": "line\Nbreak"}]`, 1, false},
		{"no json", "sorry, I cannot help", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []seg
			err := DecodeJSON(tt.input, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(got))
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), true},
		{"empty", ErrEmptyResponse, true},
		{"openai 429", &openai.Error{StatusCode: http.StatusTooManyRequests}, true},
		{"openai 400", &openai.Error{StatusCode: http.StatusBadRequest}, false},
		{"anthropic 529", &anthropic.Error{StatusCode: 529}, true},
		{"anthropic 401", &anthropic.Error{StatusCode: http.StatusUnauthorized}, false},
		{"gemini 503", fmt.Errorf("completion failed: %w", genai.APIError{Code: http.StatusServiceUnavailable}), true},
		{"gemini 404", genai.APIError{Code: http.StatusNotFound}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAIGeneratorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	g, err := NewOpenAIGenerator(apiKey, Options{})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	text, err := g.Generate(context.Background(), "Reply with the single word: ok")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text == "" {
		t.Error("expected non-empty response")
	}
}
