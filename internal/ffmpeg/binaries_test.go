package ffmpeg

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLocatorPrefersEnvironment(t *testing.T) {
	t.Setenv(envFFmpegPath, "/opt/ffmpeg")
	t.Setenv(envFFprobePath, "/opt/ffprobe")

	l := NewLocator(t.TempDir())
	l.lookPath = func(string) (string, error) {
		t.Fatal("PATH lookup should not run when env is set")
		return "", nil
	}
	paths, err := l.Paths(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if paths.FFmpeg != "/opt/ffmpeg" || paths.FFprobe != "/opt/ffprobe" {
		t.Errorf("unexpected paths %+v", paths)
	}
}

func TestLocatorUsesPath(t *testing.T) {
	t.Setenv(envFFmpegPath, "")
	t.Setenv(envFFprobePath, "")

	l := NewLocator(t.TempDir())
	l.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	path, err := l.FFprobePath(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if path != "/usr/bin/ffprobe" {
		t.Errorf("unexpected ffprobe path %q", path)
	}
}

func TestLocatorDownloadsBundle(t *testing.T) {
	if _, err := assetForPlatform(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skip("no prebuilt bundle for this platform")
	}
	t.Setenv(envFFmpegPath, "")
	t.Setenv(envFFprobePath, "")

	archive := filepath.Join(t.TempDir(), "bundle.zip")
	writeZip(t, archive, map[string]string{
		"ffmpeg" + executableSuffix():  "binary",
		"ffprobe" + executableSuffix(): "binary",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, archive)
	}))
	defer srv.Close()

	cache := t.TempDir()
	l := NewLocator(cache)
	l.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	l.baseURL = srv.URL

	paths, err := l.Paths(context.Background())
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if !binariesExist(paths.FFmpeg, paths.FFprobe) {
		t.Errorf("expected extracted binaries at %+v", paths)
	}
}

func TestExtractArchiveRequiresBothBinaries(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "partial.zip")
	writeZip(t, archive, map[string]string{"bin/ffmpeg": "x", "README": "y"})
	if err := extractArchive(archive, t.TempDir()); err == nil {
		t.Fatal("expected error for archive without ffprobe")
	}
}

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"linux", "amd64", "ffmpeg-6.1-linux-64.zip", false},
		{"linux", "arm64", "ffmpeg-6.1-linux-arm-64.zip", false},
		{"darwin", "amd64", "ffmpeg-6.1-macos-64.zip", false},
		{"windows", "amd64", "ffmpeg-6.1-win-64.zip", false},
		{"plan9", "386", "", true},
	}
	for _, tt := range tests {
		got, err := assetForPlatform(tt.goos, tt.goarch)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("assetForPlatform(%s, %s) = %q, %v", tt.goos, tt.goarch, got, err)
		}
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
