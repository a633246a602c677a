// Package pipeline runs every stage over a folder of videos, one video at
// a time, and writes the channel assignments and upload manifest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/mgpai22/captionkit/internal/captions"
	"github.com/mgpai22/captionkit/internal/config"
	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/library"
	"github.com/mgpai22/captionkit/internal/logging"
	"github.com/mgpai22/captionkit/internal/metadata"
	"github.com/mgpai22/captionkit/internal/thumbnail"
	"github.com/mgpai22/captionkit/internal/translate"
)

// LockFile is created in the library folder for the duration of a run.
const LockFile = ".captionkit.lock"

// ErrLocked is returned when another run holds the folder lock.
var ErrLocked = errors.New("another captionkit run is using this folder")

// stage names, in run order
const (
	StageCaptions    = "captions"
	StageTranscript  = "transcript"
	StageTranslate   = "translate"
	StageTitle       = "title"
	StageDescription = "description"
	StageTags        = "tags"
	StageThumbnail   = "thumbnail"
)

// Stages lists every stage in run order.
var Stages = []string{
	StageCaptions, StageTranscript, StageTranslate,
	StageTitle, StageDescription, StageTags, StageThumbnail,
}

type CaptionGenerator interface {
	Generate(ctx context.Context, mediaPath string) (*captions.Result, error)
}

type SRTTranslator interface {
	TranslateSRT(ctx context.Context, srtPath, lang string) (*translate.Result, error)
}

type MetadataGenerator interface {
	Generate(ctx context.Context, mediaPath string, kind metadata.Kind) (*metadata.Result, error)
}

type ThumbnailGenerator interface {
	Generate(ctx context.Context, mediaPath string) (*thumbnail.Result, error)
}

// Services holds the stage implementations. A nil service disables its
// stages.
type Services struct {
	Captions   CaptionGenerator
	Translator SRTTranslator
	Metadata   MetadataGenerator
	Thumbnails ThumbnailGenerator
	Durations  library.DurationFunc
}

type Options struct {
	Order          string
	MaxVideos      int
	Recursive      bool
	SourceLanguage string
	Languages      []string
	Skip           []string // stage names
	Channels       []config.Channel
}

type Runner struct {
	services Services
	options  Options
	logger   *logging.Logger
	skip     map[string]bool
}

func New(services Services, opts Options, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Nop()
	}
	skip := make(map[string]bool, len(opts.Skip))
	for _, s := range opts.Skip {
		skip[strings.ToLower(strings.TrimSpace(s))] = true
	}
	opts.SourceLanguage = language.Normalize(opts.SourceLanguage)
	opts.Languages = language.NormalizeList(opts.Languages)
	return &Runner{services: services, options: opts, logger: logger, skip: skip}
}

// ValidateStages rejects unknown stage names.
func ValidateStages(names []string) error {
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		known := false
		for _, s := range Stages {
			if s == n {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown stage %q (want one of %s)", n, strings.Join(Stages, ", "))
		}
	}
	return nil
}

// Run processes every video in dir. Stage failures are counted in the
// summary and do not stop the run; only lock, scan, and output errors do.
func (r *Runner) Run(ctx context.Context, dir string) (*Summary, error) {
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warnw("failed to release folder lock", "error", err)
		}
	}()

	summary := newSummary(uuid.NewString())
	logger := r.logger.With("run_id", summary.RunID)

	videos, err := library.Scan(dir, r.options.Recursive)
	if err != nil {
		return nil, err
	}
	library.Order(videos, r.options.Order, r.services.Durations)
	if r.options.MaxVideos > 0 && len(videos) > r.options.MaxVideos {
		videos = videos[:r.options.MaxVideos]
	}
	summary.Videos = len(videos)
	logger.Infow("run started", "dir", dir, "videos", len(videos), "order", r.options.Order)

	for i, v := range videos {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		logger.Infow("processing video", "n", i+1, "of", len(videos), "video", v.Name())
		r.processVideo(ctx, logger.With("video", v.Name()), v, summary)
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	assignments := library.AssignChannels(videos, r.options.Channels)
	if len(r.options.Channels) > 0 {
		path, err := library.WriteAssignmentsCSV(dir, assignments)
		if err != nil {
			return summary, fmt.Errorf("write channel assignments: %w", err)
		}
		summary.AssignmentsPath = path
	}

	manifest, err := library.BuildManifest(dir, videos, assignments, library.ManifestOptions{
		SourceLanguage: r.options.SourceLanguage,
		Languages:      r.targetLanguages(),
	})
	if err != nil {
		return summary, fmt.Errorf("build manifest: %w", err)
	}
	path, err := library.WriteManifest(dir, manifest)
	if err != nil {
		return summary, fmt.Errorf("write manifest: %w", err)
	}
	summary.ManifestPath = path
	summary.Ready = len(manifest.Videos)

	logger.Infow("run finished", "videos", summary.Videos, "ready", summary.Ready, "failed", summary.Failed())
	return summary, nil
}

func (r *Runner) enabled(stage string) bool {
	return !r.skip[stage]
}

func (r *Runner) targetLanguages() []string {
	var out []string
	for _, lang := range r.options.Languages {
		if lang != r.options.SourceLanguage {
			out = append(out, lang)
		}
	}
	return out
}

func (r *Runner) processVideo(ctx context.Context, logger *logging.Logger, v library.Video, s *Summary) {
	if r.enabled(StageCaptions) && r.services.Captions != nil {
		res, err := r.services.Captions.Generate(ctx, v.Path)
		s.record(logger, StageCaptions, err, res != nil && res.Skipped, 0)
	}

	if r.enabled(StageTranscript) {
		if !exists(v.SRTPath()) {
			s.record(logger, StageTranscript, fmt.Errorf("%s: %w", v.SRTPath(), translate.ErrMissingInput), false, 0)
		} else {
			written, err := captions.EnsureTranscript(v.SRTPath())
			s.record(logger, StageTranscript, err, !written, 0)
		}
	}

	if r.enabled(StageTranslate) && r.services.Translator != nil {
		for _, lang := range r.targetLanguages() {
			res, err := r.services.Translator.TranslateSRT(ctx, v.SRTPath(), lang)
			warnings := 0
			if res != nil {
				warnings = len(res.Warnings)
			}
			s.record(logger.With("language", lang), StageTranslate, err, res != nil && res.Skipped, warnings)
		}
	}

	if r.services.Metadata != nil {
		for _, kind := range metadata.Kinds {
			stage := string(kind)
			if !r.enabled(stage) {
				continue
			}
			res, err := r.services.Metadata.Generate(ctx, v.Path, kind)
			s.record(logger, stage, err, res != nil && res.Skipped, 0)
		}
	}

	if r.enabled(StageThumbnail) && r.services.Thumbnails != nil {
		res, err := r.services.Thumbnails.Generate(ctx, v.Path)
		s.record(logger, StageThumbnail, err, res != nil && res.Skipped, 0)
	}
}
