package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/captionkit/internal/retry"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	CacheDir string `toml:"cache_dir"`
}

// LLM contains the shared text generation settings. Translation and
// metadata fall back to these when their own fields are empty.
type LLM struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Translation contains caption translation settings.
type Translation struct {
	Provider          string   `toml:"provider"`
	Model             string   `toml:"model"`
	SourceLanguage    string   `toml:"source_language"`
	Languages         []string `toml:"languages"`
	RequireTranscript bool     `toml:"require_transcript"`
}

// Metadata contains title, description, and tag generation settings.
type Metadata struct {
	Provider   string   `toml:"provider"`
	Model      string   `toml:"model"`
	Language   string   `toml:"language"`
	AvoidTerms []string `toml:"avoid_terms"`
	MaxTags    int      `toml:"max_tags"`
}

// Captions contains source caption generation settings.
type Captions struct {
	Provider         string `toml:"provider"` // whisperx, openai, gemini
	Model            string `toml:"model"`
	Language         string `toml:"language"`
	CUDA             bool   `toml:"cuda"`
	PreferDownloaded bool   `toml:"prefer_downloaded"`
	MaxCharsPerLine  int    `toml:"max_chars_per_line"`
	WhisperXCommand  string `toml:"whisperx_command"`
}

// Thumbnail contains thumbnail selection settings.
type Thumbnail struct {
	PreferSource bool      `toml:"prefer_source"`
	Fractions    []float64 `toml:"fractions"`
}

// Download contains yt-dlp settings.
type Download struct {
	Binary         string   `toml:"binary"`
	Format         string   `toml:"format"`
	OutputTemplate string   `toml:"output_template"`
	WriteSubs      bool     `toml:"write_subs"`
	SubLanguages   []string `toml:"sub_languages"`
}

// Retry contains the retry policy applied to network collaborators.
type Retry struct {
	MaxAttempts int `toml:"max_attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
	MaxDelayMS  int `toml:"max_delay_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Pipeline contains batch run settings.
type Pipeline struct {
	Order     string `toml:"order"` // name, shortest_first, longest_first
	MaxVideos int    `toml:"max_videos"`
	Recursive bool   `toml:"recursive"`
}

// Channel is an upload destination videos are assigned to.
type Channel struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Skip        bool   `toml:"skip"`
}

// Config encapsulates all configuration values for captionkit.
type Config struct {
	Paths       Paths       `toml:"paths"`
	LLM         LLM         `toml:"llm"`
	Translation Translation `toml:"translation"`
	Metadata    Metadata    `toml:"metadata"`
	Captions    Captions    `toml:"captions"`
	Thumbnail   Thumbnail   `toml:"thumbnail"`
	Download    Download    `toml:"download"`
	Retry       Retry       `toml:"retry"`
	Logging     Logging     `toml:"logging"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Channels    []Channel   `toml:"channels"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/captionkit/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("captionkit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig is the resolved connection for one text generation task.
type LLMConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// TranslationLLM returns the translation connection, falling back to [llm].
func (c *Config) TranslationLLM() LLMConfig {
	return c.resolveLLM(c.Translation.Provider, c.Translation.Model)
}

// MetadataLLM returns the metadata connection, falling back to [llm].
func (c *Config) MetadataLLM() LLMConfig {
	return c.resolveLLM(c.Metadata.Provider, c.Metadata.Model)
}

func (c *Config) resolveLLM(provider, model string) LLMConfig {
	cfg := LLMConfig{
		Provider: strings.TrimSpace(provider),
		Model:    strings.TrimSpace(model),
		BaseURL:  strings.TrimSpace(c.LLM.BaseURL),
		Timeout:  time.Duration(c.LLM.TimeoutSeconds) * time.Second,
	}
	if cfg.Provider == "" {
		cfg.Provider = c.LLM.Provider
	}
	if cfg.Model == "" {
		cfg.Model = strings.TrimSpace(c.LLM.Model)
	}
	// a base URL only applies to the provider it was configured for
	if cfg.Provider != c.LLM.Provider {
		cfg.BaseURL = ""
	}
	cfg.APIKey = c.APIKey(cfg.Provider)
	return cfg
}

// APIKey returns the configured key for provider, falling back to the
// provider's environment variable.
func (c *Config) APIKey(provider string) string {
	if provider == c.LLM.Provider {
		if key := strings.TrimSpace(c.LLM.APIKey); key != "" {
			return key
		}
	}
	if env := APIKeyEnv(provider); env != "" {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// APIKeyEnv names the environment variable holding a provider's API key.
func APIKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// RetryPolicy converts [retry] into a policy for network callers.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(c.Retry.MaxDelayMS) * time.Millisecond,
	}
}
