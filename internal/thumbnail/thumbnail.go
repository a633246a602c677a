package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"

	"github.com/mgpai22/captionkit/internal/logging"
	"github.com/mgpai22/captionkit/internal/media"
	"github.com/mgpai22/captionkit/internal/retry"
)

// ErrNoSource is returned when info.json has no usable thumbnail URL.
var ErrNoSource = errors.New("no source thumbnail")

const maxDownloadBytes = 20 << 20

type Options struct {
	PreferSource bool
	Fractions    []float64 // positions in the video to sample, 0..1
	Retry        retry.Policy
}

type Result struct {
	OutputPath string
	Source     string // "source" or "frame"
	Score      float64
	Skipped    bool
}

type Service struct {
	processor media.Processor
	client    *http.Client
	logger    *logging.Logger
	options   Options
}

func NewService(processor media.Processor, client *http.Client, logger *logging.Logger, opts Options) *Service {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if len(opts.Fractions) == 0 {
		opts.Fractions = []float64{0.25, 0.5, 0.75}
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = isRetryable
	}
	return &Service{processor: processor, client: client, logger: logger, options: opts}
}

func basePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// OutputPath returns <base>.jpg for mediaPath.
func OutputPath(mediaPath string) string {
	return basePath(mediaPath) + ".jpg"
}

// Generate writes <base>.jpg unless it already exists.
func (s *Service) Generate(ctx context.Context, mediaPath string) (*Result, error) {
	outputPath := OutputPath(mediaPath)
	if _, err := os.Stat(outputPath); err == nil {
		return &Result{OutputPath: outputPath, Skipped: true}, nil
	}

	if s.options.PreferSource {
		err := s.fromSource(ctx, mediaPath, outputPath)
		if err == nil {
			s.logger.Infow("thumbnail downloaded", "output", outputPath)
			return &Result{OutputPath: outputPath, Source: "source"}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, ErrNoSource) {
			s.logger.Warnw("source thumbnail failed, using video frame", "error", err)
		}
	}

	score, err := s.fromFrames(ctx, mediaPath, outputPath)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("thumbnail extracted", "output", outputPath, "score", score)
	return &Result{OutputPath: outputPath, Source: "frame", Score: score}, nil
}

type infoJSON struct {
	Thumbnail  string `json:"thumbnail"`
	Thumbnails []struct {
		URL        string `json:"url"`
		Preference int    `json:"preference"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
	} `json:"thumbnails"`
}

// InfoPath returns the yt-dlp info.json written next to mediaPath, trying
// <base>.info.json then <media>.info.json.
func InfoPath(mediaPath string) (string, bool) {
	for _, p := range []string{basePath(mediaPath) + ".info.json", mediaPath + ".info.json"} {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// SourceURLs lists thumbnail candidates from info.json, best first: the
// primary thumbnail, then jpg variants by preference and height.
func SourceURLs(infoPath string) ([]string, error) {
	data, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, err
	}
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse %s: %w", infoPath, err)
	}

	thumbs := info.Thumbnails
	sort.SliceStable(thumbs, func(i, j int) bool {
		if thumbs[i].Preference != thumbs[j].Preference {
			return thumbs[i].Preference > thumbs[j].Preference
		}
		return thumbs[i].Height > thumbs[j].Height
	})

	seen := map[string]bool{}
	var urls []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	add(info.Thumbnail)
	for _, t := range thumbs {
		if strings.HasSuffix(strings.ToLower(strings.SplitN(t.URL, "?", 2)[0]), ".jpg") {
			add(t.URL)
		}
	}
	return urls, nil
}

func (s *Service) fromSource(ctx context.Context, mediaPath, outputPath string) error {
	infoPath, ok := InfoPath(mediaPath)
	if !ok {
		return ErrNoSource
	}
	urls, err := SourceURLs(infoPath)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return ErrNoSource
	}

	var lastErr error
	for _, u := range urls {
		data, err := s.download(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		jpg, err := toJPEG(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", u, err)
			continue
		}
		return writeFile(outputPath, jpg)
	}
	return lastErr
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.url, e.code)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := s.options.Retry.Do(ctx, "download thumbnail", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &statusError{url: url, code: resp.StatusCode}
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	return body, err
}

// toJPEG passes jpeg data through and re-encodes png and gif.
func toJPEG(data []byte) ([]byte, error) {
	if http.DetectContentType(data) == "image/jpeg" {
		return data, nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func (s *Service) fromFrames(ctx context.Context, mediaPath, outputPath string) (float64, error) {
	if s.processor == nil {
		return 0, fmt.Errorf("no media processor configured")
	}
	duration, err := s.processor.Duration(ctx, mediaPath)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", mediaPath, err)
	}

	tmpDir, err := os.MkdirTemp("", "captionkit-frames-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	var (
		best      []byte
		bestScore = -1.0
	)
	for i, fraction := range s.options.Fractions {
		at := time.Duration(float64(duration) * fraction)
		framePath := filepath.Join(tmpDir, fmt.Sprintf("frame_%02d.jpg", i))
		if err := s.processor.ExtractFrame(ctx, mediaPath, at, framePath); err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			s.logger.Debugw("frame extraction failed", "at", at, "error", err)
			continue
		}
		data, err := os.ReadFile(framePath)
		if err != nil {
			continue
		}
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			s.logger.Debugw("frame decode failed", "at", at, "error", err)
			continue
		}
		score := Score(img)
		s.logger.Debugw("frame scored", "at", at, "score", score)
		if score > bestScore {
			best, bestScore = data, score
		}
	}

	if best == nil {
		return 0, fmt.Errorf("no usable frame extracted from %s", mediaPath)
	}
	if err := writeFile(outputPath, best); err != nil {
		return 0, err
	}
	return bestScore, nil
}

// Score rates a frame by sharpness (variance of the Laplacian of the
// grayscale image) weighted by brightness, so dark fades lose to
// well-lit frames of similar detail.
func Score(img image.Image) float64 {
	gray, w, h := grayscale(img)
	if w < 3 || h < 3 {
		return 0
	}

	var sum, sumSq, brightness float64
	n := float64((w - 2) * (h - 2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := gray[y*w+x]
			lap := 4*c - gray[y*w+x-1] - gray[y*w+x+1] - gray[(y-1)*w+x] - gray[(y+1)*w+x]
			sum += lap
			sumSq += lap * lap
		}
	}
	for _, v := range gray {
		brightness += v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	meanBrightness := brightness / float64(len(gray))

	return variance * (0.5 + meanBrightness/255)
}

func grayscale(img image.Image) ([]float64, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// ITU-R 601 luma on 8-bit channels
			gray[y*w+x] = (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8))
		}
	}
	return gray, w, h
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := atomicfile.WriteData(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}
