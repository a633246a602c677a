package download

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mgpai22/captionkit/internal/logging"
	"github.com/mgpai22/captionkit/internal/retry"
)

const (
	DefaultBinary         = "yt-dlp"
	DefaultFormat         = "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/b"
	DefaultOutputTemplate = "%(title)s.%(ext)s"
)

type Options struct {
	Binary         string
	Format         string
	OutputTemplate string
	WriteSubs      bool
	SubLanguages   []string
	Retry          retry.Policy
}

type Result struct {
	URL  string
	Path string // final media file reported by yt-dlp
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YTDLP downloads videos with their info.json (and optionally captions)
// by shelling out to yt-dlp.
type YTDLP struct {
	options Options
	logger  *logging.Logger
	runner  commandRunner
}

func NewYTDLP(opts Options, logger *logging.Logger) *YTDLP {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.OutputTemplate == "" {
		opts.OutputTemplate = DefaultOutputTemplate
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &YTDLP{options: opts, logger: logger}
}

// WithCommandRunner sets a custom command runner (for testing). The runner
// returns the command's stdout.
func (y *YTDLP) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	y.runner = runner
}

// Args builds the yt-dlp argument list for one URL.
func (y *YTDLP) Args(url, dir string) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"-f", y.options.Format,
		"--merge-output-format", "mp4",
		"-o", filepath.Join(dir, y.options.OutputTemplate),
		"--write-info-json",
	}
	if y.options.WriteSubs && len(y.options.SubLanguages) > 0 {
		args = append(args,
			"--write-subs",
			"--write-auto-subs",
			"--sub-langs", strings.Join(y.options.SubLanguages, ","),
			"--sub-format", "vtt",
		)
	}
	// prints the final path once merging and moving are done
	args = append(args, "--print", "after_move:filepath", url)
	return args
}

// Download fetches url into dir, retrying failed attempts per the policy.
func (y *YTDLP) Download(ctx context.Context, url, dir string) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("download: url is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("download: ensure output dir: %w", err)
	}

	args := y.Args(url, dir)
	var out []byte
	err := y.options.Retry.Do(ctx, "yt-dlp", func(ctx context.Context) error {
		y.logger.Infow("downloading", "url", url, "dir", dir)
		stdout, err := y.run(ctx, y.options.Binary, args...)
		if err != nil {
			if _, ok := err.(*exec.Error); ok {
				// binary missing, retrying will not help
				return retry.Permanent(err)
			}
			y.logger.Warnw("yt-dlp attempt failed", "url", url, "error", err)
			return err
		}
		out = stdout
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	path := lastLine(out)
	if path == "" {
		return nil, fmt.Errorf("download %s: yt-dlp did not report an output file", url)
	}
	y.logger.Infow("downloaded", "url", url, "path", path)
	return &Result{URL: url, Path: path}, nil
}

func (y *YTDLP) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if y.runner != nil {
		return y.runner(ctx, name, args...)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.Error); ok {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
