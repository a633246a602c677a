package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/captionkit/internal/captions"
	"github.com/mgpai22/captionkit/internal/config"
	"github.com/mgpai22/captionkit/internal/ffmpeg"
	"github.com/mgpai22/captionkit/internal/llm"
	"github.com/mgpai22/captionkit/internal/media"
	"github.com/mgpai22/captionkit/internal/metadata"
	"github.com/mgpai22/captionkit/internal/thumbnail"
	"github.com/mgpai22/captionkit/internal/translate"
)

func newGenerator(ctx context.Context, lc config.LLMConfig) (llm.Generator, error) {
	provider := llm.Provider(lc.Provider)
	if provider != llm.ProviderOllama && lc.APIKey == "" {
		return nil, fmt.Errorf(
			"API key is required for %s: set llm.api_key or the %s environment variable",
			lc.Provider,
			config.APIKeyEnv(lc.Provider),
		)
	}
	gen, err := llm.Factory(ctx, provider, lc.APIKey, llm.Options{
		Model:   lc.Model,
		BaseURL: lc.BaseURL,
		Timeout: lc.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", lc.Provider, err)
	}
	return gen, nil
}

func newProcessor() media.Processor {
	return media.NewFFmpeg(ffmpeg.NewLocator(cfg.Paths.CacheDir))
}

func sourceLanguage(override string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	return cfg.Translation.SourceLanguage
}

func newTranslateService(ctx context.Context, source string, requireTranscript bool) (*translate.Service, error) {
	lc := cfg.TranslationLLM()
	gen, err := newGenerator(ctx, lc)
	if err != nil {
		return nil, err
	}
	translator := translate.NewLLMTranslator(gen, translate.Options{
		SourceLanguage: source,
		Retry:          cfg.RetryPolicy(),
	})
	var opts []translate.ServiceOption
	if !requireTranscript {
		opts = append(opts, translate.WithoutTranscript())
	}
	logger.Debugw("translation model", "provider", lc.Provider, "model", lc.Model)
	return translate.NewService(translator, logger, opts...), nil
}

func newCaptionsService(ctx context.Context, provider string, processor media.Processor) (*captions.Service, error) {
	if provider == "" {
		provider = cfg.Captions.Provider
	}
	transcriber, err := captions.Factory(ctx, captions.Provider(provider), cfg.APIKey(provider), processor, captions.Options{
		Language: cfg.Captions.Language,
		Model:    cfg.Captions.Model,
		CUDA:     cfg.Captions.CUDA,
		Command:  cfg.Captions.WhisperXCommand,
	})
	if err != nil {
		return nil, err
	}
	opts := []captions.ServiceOption{captions.WithMaxCharsPerLine(cfg.Captions.MaxCharsPerLine)}
	if cfg.Captions.PreferDownloaded {
		opts = append(opts, captions.WithDownloadedCaptions(cfg.Captions.Language))
	}
	return captions.NewService(transcriber, logger, opts...), nil
}

func newMetadataService(ctx context.Context) (*metadata.Service, error) {
	gen, err := newGenerator(ctx, cfg.MetadataLLM())
	if err != nil {
		return nil, err
	}
	return metadata.NewService(gen, logger, metadata.Options{
		Language:   cfg.Metadata.Language,
		AvoidTerms: cfg.Metadata.AvoidTerms,
		MaxTags:    cfg.Metadata.MaxTags,
		Retry:      cfg.RetryPolicy(),
	}), nil
}

func newThumbnailService(processor media.Processor) *thumbnail.Service {
	return thumbnail.NewService(processor, nil, logger, thumbnail.Options{
		PreferSource: cfg.Thumbnail.PreferSource,
		Fractions:    cfg.Thumbnail.Fractions,
		Retry:        cfg.RetryPolicy(),
	})
}
