package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/library"
	"github.com/mgpai22/captionkit/internal/media"
	"github.com/mgpai22/captionkit/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [directory]",
	Short: "Run every stage over a folder of videos",
	Long: `Process each video in the folder one at a time: captions, transcript,
translations, title, description, tags, and thumbnail. A failed stage is
logged and the run moves on. Finally channels are assigned and
_upload_manifest.yaml lists the videos ready for upload.

Examples:
  captionkit run videos/
  captionkit run videos/ -t fr,de --skip thumbnail`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().
		StringSliceP("target-language", "t", nil, "Translation languages (default from config)")
	runCmd.Flags().
		StringSlice("skip", nil, "Stages to skip: "+strings.Join(pipeline.Stages, ", "))
}

func targetLanguages(cmd *cobra.Command) []string {
	targets, _ := cmd.Flags().GetStringSlice("target-language")
	if langs := splitList(targets); len(langs) > 0 {
		return langs
	}
	return cfg.Translation.Languages
}

func runRun(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx := cmd.Context()
	if err := requireDir(dir); err != nil {
		return err
	}

	skipFlag, _ := cmd.Flags().GetStringSlice("skip")
	skip := splitList(skipFlag)
	if err := pipeline.ValidateStages(skip); err != nil {
		return err
	}
	inputLang, _ := cmd.Flags().GetString("language")
	source := sourceLanguage(inputLang)
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	processor := newProcessor()
	services := pipeline.Services{
		Thumbnails: newThumbnailService(processor),
		Durations:  durationFunc(ctx, processor),
	}
	// only build the clients for stages that will run, so a missing API
	// key for a skipped stage is not an error
	if !skipped[pipeline.StageCaptions] {
		svc, err := newCaptionsService(ctx, "", processor)
		if err != nil {
			return fmt.Errorf("failed to create transcriber: %w", err)
		}
		services.Captions = svc
	}
	if !skipped[pipeline.StageTranslate] {
		svc, err := newTranslateService(ctx, source, cfg.Translation.RequireTranscript)
		if err != nil {
			return err
		}
		services.Translator = svc
	}
	if !skipped[pipeline.StageTitle] || !skipped[pipeline.StageDescription] || !skipped[pipeline.StageTags] {
		svc, err := newMetadataService(ctx)
		if err != nil {
			return err
		}
		services.Metadata = svc
	}

	runner := pipeline.New(services, pipeline.Options{
		Order:          cfg.Pipeline.Order,
		MaxVideos:      cfg.Pipeline.MaxVideos,
		Recursive:      cfg.Pipeline.Recursive,
		SourceLanguage: source,
		Languages:      targetLanguages(cmd),
		Skip:           skip,
		Channels:       cfg.Channels,
	}, logger)

	summary, err := runner.Run(ctx, dir)
	if summary != nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, isTerminalOutput(cmd)))
	}
	if err != nil {
		return err
	}
	if summary.ManifestPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest: %s (%d ready of %d)\n", summary.ManifestPath, summary.Ready, summary.Videos)
	}
	return nil
}

func durationFunc(ctx context.Context, processor media.Processor) library.DurationFunc {
	return func(v library.Video) (time.Duration, error) {
		return processor.Duration(ctx, v.Path)
	}
}
