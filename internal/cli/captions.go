package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/captions"
	"github.com/mgpai22/captionkit/internal/media"
	"github.com/mgpai22/captionkit/internal/translate"
)

var captionsCmd = &cobra.Command{
	Use:   "captions [media_file]",
	Short: "Generate <base>.srt and <base>.txt for an audio or video file",
	Long: `Generate source-language captions for a media file.

Captions downloaded by yt-dlp (<base>.<lang>.vtt) are converted when
present; otherwise the configured provider transcribes the audio:
whisperx runs locally, openai and gemini call their APIs. An existing
<base>.srt is kept and only its transcript is refreshed.

Examples:
  captionkit captions talk.mp4
  captionkit captions podcast.mp3 --provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runCaptions,
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript [subtitle_file]",
	Short: "Write the one-line-per-segment transcript of an SRT file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscript,
}

func init() {
	rootCmd.AddCommand(captionsCmd)
	rootCmd.AddCommand(transcriptCmd)

	captionsCmd.Flags().
		String("provider", "", "Captions provider (whisperx, openai, gemini); default from config")
}

func runCaptions(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := cmd.Context()

	if err := requireFile(mediaPath); err != nil {
		return err
	}
	if !media.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	provider, _ := cmd.Flags().GetString("provider")
	service, err := newCaptionsService(ctx, provider, newProcessor())
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	result, err := service.Generate(ctx, mediaPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	absOutput, _ := filepath.Abs(result.SRTPath)
	if result.Skipped {
		fmt.Fprintf(out, "Captions already exist: %s\n", absOutput)
		return nil
	}
	fmt.Fprintf(out, "Captions generated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Segments: %d\n", result.Segments)
	fmt.Fprintf(out, "  Source: %s\n", result.Source)
	return nil
}

func runTranscript(cmd *cobra.Command, args []string) error {
	srtPath := args[0]
	if err := requireFile(srtPath); err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = translate.TranscriptPath(srtPath)
	}
	if err := captions.WriteTranscript(srtPath, outputPath); err != nil {
		return err
	}
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Transcript written: %s\n", absOutput)
	return nil
}
