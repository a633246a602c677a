package captions

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

const (
	DefaultWhisperXModel = "large-v3"
	defaultLauncher      = "uvx"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// WhisperX runs the whisperx CLI and reads back the SRT it writes.
type WhisperX struct {
	options Options
	runner  commandRunner
}

func NewWhisperX(opts Options) *WhisperX {
	if opts.Model == "" {
		opts.Model = DefaultWhisperXModel
	}
	if opts.Command == "" {
		opts.Command = defaultLauncher
	}
	return &WhisperX{options: opts}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	w.runner = runner
}

func (w *WhisperX) Transcribe(ctx context.Context, mediaPath string) ([]subtitle.Segment, error) {
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("media file not found: %s", mediaPath)
	}

	outputDir, err := os.MkdirTemp("", "captionkit-whisperx-*")
	if err != nil {
		return nil, fmt.Errorf("whisperx: create output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outputDir) }()

	name, args := w.command(mediaPath, outputDir)
	if err := w.run(ctx, name, args...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	srtPath := filepath.Join(outputDir, baseName+".srt")
	sub, err := subtitle.ParseSRTFile(srtPath)
	if err != nil {
		return nil, fmt.Errorf("whisperx: read output: %w", err)
	}
	return subtitle.SegmentsFromEntries(sub.Entries), nil
}

// command returns the launcher and its arguments. With the default uvx
// launcher the whisperx package name comes first.
func (w *WhisperX) command(source, outputDir string) (string, []string) {
	args := make([]string, 0, 16)
	name := w.options.Command
	if filepath.Base(name) != "whisperx" {
		args = append(args, "whisperx")
	}

	args = append(args,
		source,
		"--model", w.options.Model,
		"--output_dir", outputDir,
		"--output_format", "srt",
	)

	if lang := language.Normalize(w.options.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if w.options.CUDA {
		args = append(args, "--device", "cuda", "--compute_type", "float16")
	} else {
		args = append(args, "--device", "cpu", "--compute_type", "float32")
	}

	if w.options.Prompt != "" {
		args = append(args, "--initial_prompt", w.options.Prompt)
	}

	return name, args
}

func (w *WhisperX) run(ctx context.Context, name string, args ...string) error {
	if w.runner != nil {
		return w.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// torch 2.6 defaults torch.load to weights_only which breaks the alignment models
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
