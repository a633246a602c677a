package config

const (
	defaultLLMProvider        = "ollama"
	defaultOllamaBaseURL      = "http://localhost:11434/v1/"
	defaultMetadataModel      = "llama3.2"
	defaultTranslationModel   = "winkefinger/alma-13b"
	defaultLLMTimeoutSeconds  = 300
	defaultCaptionsProvider   = "whisperx"
	defaultWhisperXModel      = "large-v3"
	defaultWhisperXCommand    = "uvx"
	defaultMaxCharsPerLine    = 42
	defaultMaxTags            = 15
	defaultDownloadBinary     = "yt-dlp"
	defaultDownloadFormat     = "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/b"
	defaultOutputTemplate     = "%(title)s.%(ext)s"
	defaultRetryAttempts      = 3
	defaultRetryBaseDelayMS   = 2000
	defaultRetryMaxDelayMS    = 30000
	defaultPipelineOrder      = OrderShortestFirst
	defaultSourceLanguageCode = "en"
)

const (
	OrderName          = "name"
	OrderShortestFirst = "shortest_first"
	OrderLongestFirst  = "longest_first"
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  ".",
			CacheDir: "~/.cache/captionkit",
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			Model:          defaultMetadataModel,
			BaseURL:        defaultOllamaBaseURL,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Translation: Translation{
			Model:             defaultTranslationModel,
			SourceLanguage:    defaultSourceLanguageCode,
			Languages:         []string{"fr"},
			RequireTranscript: true,
		},
		Metadata: Metadata{
			Language: defaultSourceLanguageCode,
			MaxTags:  defaultMaxTags,
		},
		Captions: Captions{
			Provider:         defaultCaptionsProvider,
			Model:            defaultWhisperXModel,
			Language:         defaultSourceLanguageCode,
			PreferDownloaded: true,
			MaxCharsPerLine:  defaultMaxCharsPerLine,
			WhisperXCommand:  defaultWhisperXCommand,
		},
		Thumbnail: Thumbnail{
			PreferSource: true,
			Fractions:    []float64{0.25, 0.5, 0.75},
		},
		Download: Download{
			Binary:         defaultDownloadBinary,
			Format:         defaultDownloadFormat,
			OutputTemplate: defaultOutputTemplate,
			WriteSubs:      true,
			SubLanguages:   []string{defaultSourceLanguageCode},
		},
		Retry: Retry{
			MaxAttempts: defaultRetryAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
			MaxDelayMS:  defaultRetryMaxDelayMS,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		Pipeline: Pipeline{
			Order: defaultPipelineOrder,
		},
	}
}
