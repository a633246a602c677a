package config

import (
	"fmt"
	"strings"

	"github.com/mgpai22/captionkit/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTranslation()
	c.normalizeMetadata()
	c.normalizeCaptions()
	c.normalizeDownload()
	c.normalizeLogging()
	c.normalizeChannels()
	c.Pipeline.Order = strings.ToLower(strings.TrimSpace(c.Pipeline.Order))
	if c.Pipeline.Order == "" {
		c.Pipeline.Order = defaultPipelineOrder
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = "."
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.Provider == "ollama" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultOllamaBaseURL
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	c.Translation.SourceLanguage = language.Normalize(c.Translation.SourceLanguage)
	if c.Translation.SourceLanguage == "" {
		c.Translation.SourceLanguage = defaultSourceLanguageCode
	}
	c.Translation.Languages = language.NormalizeList(c.Translation.Languages)
}

func (c *Config) normalizeMetadata() {
	c.Metadata.Provider = strings.ToLower(strings.TrimSpace(c.Metadata.Provider))
	c.Metadata.Language = language.Normalize(c.Metadata.Language)
	if c.Metadata.Language == "" {
		c.Metadata.Language = defaultSourceLanguageCode
	}
	var terms []string
	for _, term := range c.Metadata.AvoidTerms {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	c.Metadata.AvoidTerms = terms
	if c.Metadata.MaxTags <= 0 {
		c.Metadata.MaxTags = defaultMaxTags
	}
}

func (c *Config) normalizeCaptions() {
	c.Captions.Provider = strings.ToLower(strings.TrimSpace(c.Captions.Provider))
	if c.Captions.Provider == "" {
		c.Captions.Provider = defaultCaptionsProvider
	}
	c.Captions.Language = language.Normalize(c.Captions.Language)
	if c.Captions.MaxCharsPerLine <= 0 {
		c.Captions.MaxCharsPerLine = defaultMaxCharsPerLine
	}
	if strings.TrimSpace(c.Captions.WhisperXCommand) == "" {
		c.Captions.WhisperXCommand = defaultWhisperXCommand
	}
}

func (c *Config) normalizeDownload() {
	if strings.TrimSpace(c.Download.Binary) == "" {
		c.Download.Binary = defaultDownloadBinary
	}
	if strings.TrimSpace(c.Download.OutputTemplate) == "" {
		c.Download.OutputTemplate = defaultOutputTemplate
	}
	c.Download.SubLanguages = language.NormalizeList(c.Download.SubLanguages)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) normalizeChannels() {
	var channels []Channel
	for _, ch := range c.Channels {
		ch.Name = strings.TrimSpace(ch.Name)
		if ch.Name == "" {
			continue
		}
		ch.Description = strings.TrimSpace(ch.Description)
		channels = append(channels, ch)
	}
	c.Channels = channels
}
