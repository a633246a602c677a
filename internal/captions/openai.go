package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/captionkit/internal/media"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

// implements Transcriber using the OpenAI Audio API
type OpenAITranscriber struct {
	client    openai.Client
	model     string
	options   Options
	processor media.Processor
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	apiKey string,
	processor media.Processor,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" || model == DefaultWhisperXModel {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:    client,
		model:     model,
		options:   opts,
		processor: processor,
	}, nil
}

func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	mediaPath string,
) ([]subtitle.Segment, error) {
	audioPath, cleanup, err := prepareAudio(ctx, t.processor, mediaPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var duration time.Duration
	if t.processor != nil {
		duration, _ = t.processor.Duration(ctx, audioPath)
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}

	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}

	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := parseVerboseJSON(resp.RawJSON(), duration)
	if err != nil {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, err
		}
		segments = []subtitle.Segment{{
			StartTime: 0,
			EndTime:   duration,
			Text:      text,
		}}
	}

	return segments, nil
}

func parseVerboseJSON(
	rawJSON string,
	fallbackDuration time.Duration,
) ([]subtitle.Segment, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(verboseResp.Segments) == 0 {
		if verboseResp.Text == "" {
			return nil, fmt.Errorf("no segments or text in response")
		}
		dur := fallbackDuration
		if verboseResp.Duration > 0 {
			dur = time.Duration(verboseResp.Duration * float64(time.Second))
		}
		return []subtitle.Segment{{
			StartTime: 0,
			EndTime:   dur,
			Text:      strings.TrimSpace(verboseResp.Text),
		}}, nil
	}

	segments := make([]subtitle.Segment, 0, len(verboseResp.Segments))
	for _, seg := range verboseResp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{
			StartTime: time.Duration(seg.Start * float64(time.Second)),
			EndTime:   time.Duration(seg.End * float64(time.Second)),
			Text:      text,
		})
	}

	return segments, nil
}

// prepareAudio extracts a compact mono track from video input. Audio input
// is used as is.
func prepareAudio(
	ctx context.Context,
	processor media.Processor,
	mediaPath string,
) (string, func(), error) {
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return "", nil, fmt.Errorf("media file not found: %s", mediaPath)
	}
	if media.IsAudioFile(mediaPath) || processor == nil {
		return mediaPath, func() {}, nil
	}

	tmpDir, err := os.MkdirTemp("", "captionkit-audio-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	audioPath := filepath.Join(tmpDir, "audio.mp3")
	if err := processor.ExtractAudio(ctx, mediaPath, audioPath, media.DefaultAudioOptions()); err != nil {
		cleanup()
		return "", nil, err
	}
	return audioPath, cleanup, nil
}
