package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Generator using OpenAI Chat Completions. Ollama is served
// through the same client against its OpenAI-compatible endpoint.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIGenerator(apiKey string, opts Options) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIGenerator{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		timeout: opts.Timeout,
	}, nil
}

// NewOllamaGenerator talks to a local Ollama server. Ollama ignores the
// API key but the client requires one.
func NewOllamaGenerator(opts Options) (*OpenAIGenerator, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOllamaBaseURL
	}
	if opts.Model == "" {
		opts.Model = "llama3.2"
	}
	return NewOpenAIGenerator("ollama", opts)
}

func (g *OpenAIGenerator) Model() string {
	return g.model
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: g.model,
		},
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := CleanResponse(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
