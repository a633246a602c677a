package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Generator using Anthropic Claude
type AnthropicGenerator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
}

func NewAnthropicGenerator(apiKey string, opts Options) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	return &AnthropicGenerator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   opts.Timeout,
	}, nil
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	message, err := g.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     g.model,
			MaxTokens: g.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt),
				),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if message == nil || len(message.Content) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := CleanResponse(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
