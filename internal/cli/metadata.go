package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/metadata"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata [media_file]",
	Short: "Generate a title, description, and tags from a video's captions",
	Long: `Generate <base>_title.txt, <base>_description.txt, and <base>_tags.txt
from the transcript in <base>.srt. Files that already exist are kept.

Examples:
  captionkit metadata talk.mp4
  captionkit metadata talk.mp4 --only title`,
	Args: cobra.ExactArgs(1),
	RunE: runMetadata,
}

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail [media_file]",
	Short: "Write <base>.jpg from the source thumbnail or the best video frame",
	Args:  cobra.ExactArgs(1),
	RunE:  runThumbnail,
}

func init() {
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(thumbnailCmd)

	metadataCmd.Flags().
		StringSlice("only", nil, "Generate only these kinds (title, description, tags)")
}

func runMetadata(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := cmd.Context()

	only, _ := cmd.Flags().GetStringSlice("only")
	kinds := metadata.Kinds
	if names := splitList(only); len(names) > 0 {
		kinds = nil
		for _, name := range names {
			kind, err := metadata.ParseKind(name)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}
	}

	service, err := newMetadataService(ctx)
	if err != nil {
		return err
	}
	results, err := service.GenerateAll(ctx, mediaPath, kinds...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Skipped {
			fmt.Fprintf(out, "%-12s exists  %s\n", r.Kind, r.OutputPath)
			continue
		}
		fmt.Fprintf(out, "%-12s %s\n", r.Kind, r.Value)
	}
	return nil
}

func runThumbnail(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	if err := requireFile(mediaPath); err != nil {
		return err
	}
	result, err := newThumbnailService(newProcessor()).Generate(cmd.Context(), mediaPath)
	if err != nil {
		return err
	}
	absOutput, _ := filepath.Abs(result.OutputPath)
	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintf(out, "Thumbnail already exists: %s\n", absOutput)
		return nil
	}
	fmt.Fprintf(out, "Thumbnail written: %s (%s)\n", absOutput, result.Source)
	return nil
}
