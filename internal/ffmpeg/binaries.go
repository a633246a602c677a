package ffmpeg

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	envFFmpegPath  = "CAPTIONKIT_FFMPEG_PATH"
	envFFprobePath = "CAPTIONKIT_FFPROBE_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locator finds ffmpeg and ffprobe, downloading a static build into
// CacheDir when neither the environment nor PATH provides them. The
// lookup runs once per Locator.
type Locator struct {
	CacheDir   string
	HTTPClient *http.Client

	// overridable for tests
	lookPath func(string) (string, error)
	baseURL  string

	once  sync.Once
	paths BinaryPaths
	err   error
}

func NewLocator(cacheDir string) *Locator {
	return &Locator{CacheDir: cacheDir}
}

func (l *Locator) Paths(ctx context.Context) (BinaryPaths, error) {
	l.once.Do(func() {
		l.paths, l.err = l.locate(ctx)
	})
	return l.paths, l.err
}

func (l *Locator) FFmpegPath(ctx context.Context) (string, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func (l *Locator) FFprobePath(ctx context.Context) (string, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func (l *Locator) locate(ctx context.Context) (BinaryPaths, error) {
	ffmpegPath := os.Getenv(envFFmpegPath)
	ffprobePath := os.Getenv(envFFprobePath)
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if ffmpegPath == "" {
		if found, err := lookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := lookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return BinaryPaths{}, fmt.Errorf("ffmpeg not found on PATH and %w", err)
	}

	installDir := l.installDir()
	exeSuffix := executableSuffix()
	ffmpegPath = filepath.Join(installDir, "ffmpeg"+exeSuffix)
	ffprobePath = filepath.Join(installDir, "ffprobe"+exeSuffix)

	if binariesExist(ffmpegPath, ffprobePath) {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	if err := l.downloadAndExtract(ctx, assetName, installDir); err != nil {
		return BinaryPaths{}, err
	}

	if !binariesExist(ffmpegPath, ffprobePath) {
		return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
	}

	if runtime.GOOS != "windows" {
		for _, p := range []string{ffmpegPath, ffprobePath} {
			if err := os.Chmod(p, 0o755); err != nil {
				return BinaryPaths{}, fmt.Errorf("chmod %s: %w", filepath.Base(p), err)
			}
		}
	}

	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func (l *Locator) installDir() string {
	cacheDir := l.CacheDir
	if cacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil && dir != "" {
			cacheDir = filepath.Join(dir, "captionkit")
		} else {
			cacheDir = filepath.Join(os.TempDir(), "captionkit")
		}
	}
	return filepath.Join(
		cacheDir,
		"ffmpeg",
		ffmpegReleaseVersion,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

func assetForPlatform(goos, goarch string) (string, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-64.zip", nil
	case goos == "linux" && goarch == "arm64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-arm-64.zip", nil
	case goos == "darwin" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-macos-64.zip", nil
	case goos == "windows" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-win-64.zip", nil
	default:
		return "", fmt.Errorf("no prebuilt ffmpeg for %s/%s", goos, goarch)
	}
}

func (l *Locator) downloadAndExtract(ctx context.Context, assetName, installDir string) error {
	baseURL := l.baseURL
	if baseURL == "" {
		baseURL = ffmpegReleaseBaseURL
	}
	url := fmt.Sprintf("%s/v%s/%s", baseURL, ffmpegReleaseVersion, assetName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp("", "captionkit-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(archivePath, installDir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

func extractArchive(archivePath, installDir string) error {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	ffmpegFound := false
	ffprobeFound := false
	for _, file := range zipReader.File {
		name := filepath.Base(file.Name)
		switch {
		case isBinary(name, "ffmpeg"):
			dest := filepath.Join(installDir, "ffmpeg"+executableSuffix())
			if err := extractZipFile(file, dest); err != nil {
				return err
			}
			ffmpegFound = true
		case isBinary(name, "ffprobe"):
			dest := filepath.Join(installDir, "ffprobe"+executableSuffix())
			if err := extractZipFile(file, dest); err != nil {
				return err
			}
			ffprobeFound = true
		}
	}

	if !ffmpegFound || !ffprobeFound {
		return fmt.Errorf("ffmpeg archive missing required binaries")
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open ffmpeg archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create ffmpeg output dir: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create ffmpeg binary: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("write ffmpeg binary: %w", err)
	}
	return nil
}

func binariesExist(ffmpegPath, ffprobePath string) bool {
	return fileExists(ffmpegPath) && fileExists(ffprobePath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func isBinary(name, tool string) bool {
	name = strings.ToLower(name)
	return name == tool || name == tool+".exe"
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
