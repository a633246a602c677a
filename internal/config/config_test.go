package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/captionkit/internal/config"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	want := filepath.Join(tempHome, ".config", "captionkit", "config.toml")
	if resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("expected ollama provider by default, got %q", cfg.LLM.Provider)
	}
	if cfg.Translation.SourceLanguage != "en" {
		t.Fatalf("unexpected source language %q", cfg.Translation.SourceLanguage)
	}
	if !cfg.Translation.RequireTranscript {
		t.Fatal("expected transcript to be required by default")
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "captionkit") {
		t.Fatalf("unexpected cache dir %q", cfg.Paths.CacheDir)
	}
	if len(cfg.Thumbnail.Fractions) != 3 {
		t.Fatalf("expected three thumbnail fractions, got %v", cfg.Thumbnail.Fractions)
	}
}

func TestLoadFileOverridesAndNormalizes(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "captionkit.toml")
	content := `
[llm]
provider = "OpenAI"
model = "gpt-5-mini"

[translation]
languages = ["FR", "German", "fr"]

[metadata]
avoid_terms = [" Acme Clinic ", ""]

[[channels]]
name = " Cardiology "

[[channels]]
name = "PDF"
skip = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q exists=%v", path, resolved, exists)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected lowercased provider, got %q", cfg.LLM.Provider)
	}
	if got := strings.Join(cfg.Translation.Languages, ","); got != "fr,de" {
		t.Errorf("unexpected languages %q", got)
	}
	if len(cfg.Metadata.AvoidTerms) != 1 || cfg.Metadata.AvoidTerms[0] != "Acme Clinic" {
		t.Errorf("unexpected avoid terms %q", cfg.Metadata.AvoidTerms)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[0].Name != "Cardiology" || !cfg.Channels[1].Skip {
		t.Errorf("unexpected channels %+v", cfg.Channels)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown provider", "[llm]\nprovider = \"bard\"\n", "llm.provider"},
		{"bad captions provider", "[captions]\nprovider = \"vosk\"\n", "captions.provider"},
		{"fraction out of range", "[thumbnail]\nfractions = [0.5, 1.2]\n", "thumbnail.fractions"},
		{"zero attempts", "[retry]\nmax_attempts = 0\n", "retry.max_attempts"},
		{"bad order", "[pipeline]\norder = \"random\"\n", "pipeline.order"},
		{"duplicate channel", "[[channels]]\nname = \"A\"\n[[channels]]\nname = \"a\"\n", "duplicate channel"},
		{"unknown key", "[llm]\nprovdier = \"openai\"\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected CreateSample to refuse overwriting")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
	def := config.Default()
	if cfg.Translation.Model != def.Translation.Model {
		t.Errorf("sample translation model %q differs from default %q", cfg.Translation.Model, def.Translation.Model)
	}
	if cfg.Retry.MaxAttempts != def.Retry.MaxAttempts {
		t.Errorf("sample retry attempts differ from default")
	}
}

func TestResolveLLMFallbacks(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-env")
	cfg := config.Default()
	cfg.LLM.APIKey = "shared"
	cfg.Metadata.Provider = "anthropic"
	cfg.Metadata.Model = ""

	tr := cfg.TranslationLLM()
	if tr.Provider != "ollama" || tr.Model != "winkefinger/alma-13b" {
		t.Errorf("unexpected translation llm %+v", tr)
	}
	if tr.APIKey != "shared" || tr.BaseURL == "" {
		t.Errorf("expected shared key and base url, got %+v", tr)
	}
	if tr.Timeout != 300*time.Second {
		t.Errorf("unexpected timeout %v", tr.Timeout)
	}

	md := cfg.MetadataLLM()
	if md.Provider != "anthropic" || md.APIKey != "anthropic-env" {
		t.Errorf("expected anthropic env key, got %+v", md)
	}
	if md.BaseURL != "" {
		t.Errorf("base url must not leak across providers, got %q", md.BaseURL)
	}
	if md.Model != "llama3.2" {
		t.Errorf("expected fallback to shared model, got %q", md.Model)
	}
}

func TestRetryPolicy(t *testing.T) {
	cfg := config.Default()
	p := cfg.RetryPolicy()
	if p.MaxAttempts != 3 || p.BaseDelay != 2*time.Second || p.MaxDelay != 30*time.Second {
		t.Errorf("unexpected policy %+v", p)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CAPTIONKIT_TEST_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAPTIONKIT_TEST_KEY", "")
	os.Unsetenv("CAPTIONKIT_TEST_KEY")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("CAPTIONKIT_TEST_KEY"); got != "from-dotenv" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
