package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/subtitle"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate an SRT file segment by segment using an LLM",
	Long: `Translate an SRT subtitle into one or more languages.

The subtitle is flattened to one line per segment (read from the <base>.txt
companion), translated in a single request, and re-timed onto the original
segments. The result is written to <base>_<lang>.srt; existing outputs are
left untouched.

Examples:
  captionkit translate talk.srt -t fr
  captionkit translate talk.srt -t fr,de --require-transcript=false
  captionkit translate talk.srt -t ja -l en`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringSliceP("target-language", "t", nil, "Target language codes (required, comma separated)")
	translateCmd.Flags().
		Bool("require-transcript", true, "Fail when the <base>.txt companion is missing (default from config)")

	_ = translateCmd.MarkFlagRequired("target-language")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	srtPath := args[0]
	ctx := cmd.Context()

	targets, _ := cmd.Flags().GetStringSlice("target-language")
	inputLang, _ := cmd.Flags().GetString("language")

	if cmd.Flags().Changed("output") {
		return fmt.Errorf("--output is not supported by translate: results are written to <base>_<lang>.srt")
	}
	if err := requireFile(srtPath); err != nil {
		return err
	}
	if subtitle.GetFormatFromExtension(srtPath) != subtitle.FormatSRT {
		return fmt.Errorf("unsupported subtitle format %q: use .srt", filepath.Ext(srtPath))
	}

	source := sourceLanguage(inputLang)
	langs := language.NormalizeList(splitList(targets))
	if len(langs) == 0 {
		return fmt.Errorf("target language is required")
	}
	for _, lang := range langs {
		if lang == language.Normalize(source) {
			return fmt.Errorf("input language %q and target language %q cannot be the same", source, lang)
		}
	}

	requireTranscript := cfg.Translation.RequireTranscript
	if cmd.Flags().Changed("require-transcript") {
		requireTranscript, _ = cmd.Flags().GetBool("require-transcript")
	}

	service, err := newTranslateService(ctx, source, requireTranscript)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, lang := range langs {
		result, err := service.TranslateSRT(ctx, srtPath, lang)
		if err != nil {
			return err
		}
		absOutput, _ := filepath.Abs(result.OutputPath)
		if result.Skipped {
			fmt.Fprintf(out, "Translation already exists: %s\n", absOutput)
			continue
		}
		fmt.Fprintf(out, "Subtitles translated successfully: %s\n", absOutput)
		fmt.Fprintf(out, "  Segments: %d\n", result.Segments)
		fmt.Fprintf(out, "  Target language: %s\n", language.DisplayName(lang))
		if len(result.Warnings) > 0 {
			fmt.Fprintf(out, "  Warnings: %d\n", len(result.Warnings))
		}
	}
	return nil
}
