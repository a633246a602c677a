package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// implements Generator using Google Gemini
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiGenerator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiGenerator{
		client:  client,
		model:   model,
		timeout: opts.Timeout,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	text := CleanResponse(ResponseText(result))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ResponseText concatenates the text parts of the first candidate that
// has any.
func ResponseText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
