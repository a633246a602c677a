package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/llm"
	"github.com/mgpai22/captionkit/internal/media"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

// implements Transcriber using Google Gemini
type GeminiTranscriber struct {
	client    *genai.Client
	model     string
	options   Options
	processor media.Processor
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewGeminiTranscriber(
	ctx context.Context,
	apiKey string,
	processor media.Processor,
	opts Options,
) (*GeminiTranscriber, error) {
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
	if model == "" || model == DefaultWhisperXModel {
		model = "gemini-2.5-flash"
	}

	return &GeminiTranscriber{
		client:    client,
		model:     model,
		options:   opts,
		processor: processor,
	}, nil
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, mediaPath string) ([]subtitle.Segment, error) {
	audioPath, cleanup, err := prepareAudio(ctx, t.processor, mediaPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	uploadedFile, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}

	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(buildTranscriptionPrompt(t.options)),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	text := llm.ResponseText(result)
	if text == "" {
		return nil, llm.ErrEmptyResponse
	}

	segments, err := extractTranscriptSegments(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}
	return segments, nil
}

// creates the prompt for transcription
func buildTranscriptionPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")

	if opts.Language != "" {
		fmt.Fprintf(&sb, "The audio is in %s. ", language.DisplayName(opts.Language))
	}

	if opts.Prompt != "" {
		sb.WriteString(opts.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

// extractTranscriptSegments pulls the segment list out of a model answer.
// It accepts a bare array or an object wrapping the array under any key,
// at any depth.
func extractTranscriptSegments(text string) ([]subtitle.Segment, error) {
	var found []transcriptSegment
	for _, value := range llm.JSONValues(text) {
		if segs, ok := findSegments(value); ok {
			found = segs
			break
		}
	}

	if !validateSegments(found) {
		return nil, fmt.Errorf("no transcript segments in response")
	}

	segments := make([]subtitle.Segment, len(found))
	for i, ts := range found {
		segments[i] = subtitle.Segment{
			StartTime: time.Duration(ts.Start * float64(time.Second)),
			EndTime:   time.Duration(ts.End * float64(time.Second)),
			Text:      strings.TrimSpace(ts.Text),
		}
	}
	return segments, nil
}

func findSegments(raw json.RawMessage) ([]transcriptSegment, bool) {
	var segs []transcriptSegment
	if err := json.Unmarshal(raw, &segs); err == nil {
		return segs, validateSegments(segs)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	for _, key := range []string{"segments", "transcript", "data"} {
		if v, ok := obj[key]; ok {
			if segs, ok := findSegments(v); ok {
				return segs, true
			}
		}
	}
	for _, v := range obj {
		if segs, ok := findSegments(v); ok {
			return segs, true
		}
	}
	return nil, false
}

// validateSegments reports whether at least one segment carries data
func validateSegments(segments []transcriptSegment) bool {
	for _, s := range segments {
		if s.Text != "" || s.Start != 0 || s.End != 0 {
			return true
		}
	}
	return false
}
