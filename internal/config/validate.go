package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateThumbnail(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProviders() error {
	for field, value := range map[string]string{
		"llm.provider":         c.LLM.Provider,
		"translation.provider": c.Translation.Provider,
		"metadata.provider":    c.Metadata.Provider,
	} {
		if value == "" {
			continue
		}
		switch value {
		case "ollama", "openai", "anthropic", "gemini":
		default:
			return fmt.Errorf("%s: unsupported provider %q (use ollama, openai, anthropic, or gemini)", field, value)
		}
	}
	switch c.Captions.Provider {
	case "whisperx", "openai", "gemini":
	default:
		return fmt.Errorf("captions.provider: unsupported provider %q (use whisperx, openai, or gemini)", c.Captions.Provider)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateThumbnail() error {
	if len(c.Thumbnail.Fractions) == 0 {
		return fmt.Errorf("thumbnail.fractions must list at least one position")
	}
	for _, f := range c.Thumbnail.Fractions {
		if f <= 0 || f >= 1 {
			return fmt.Errorf("thumbnail.fractions: %v must be between 0 and 1", f)
		}
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}
	if c.Retry.BaseDelayMS < 0 || c.Retry.MaxDelayMS < 0 {
		return fmt.Errorf("retry delays must be >= 0")
	}
	if c.Retry.MaxDelayMS > 0 && c.Retry.BaseDelayMS > c.Retry.MaxDelayMS {
		return fmt.Errorf("retry.base_delay_ms must not exceed retry.max_delay_ms")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.Order {
	case OrderName, OrderShortestFirst, OrderLongestFirst:
	default:
		return fmt.Errorf("pipeline.order: unsupported order %q", c.Pipeline.Order)
	}
	if c.Pipeline.MaxVideos < 0 {
		return fmt.Errorf("pipeline.max_videos must be >= 0")
	}
	seen := make(map[string]bool, len(c.Channels))
	for _, ch := range c.Channels {
		key := strings.ToLower(ch.Name)
		if seen[key] {
			return fmt.Errorf("channels: duplicate channel %q", ch.Name)
		}
		seen[key] = true
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported format %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported level %q", c.Logging.Level)
	}
	return nil
}
