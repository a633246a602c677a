package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/download"
	"github.com/mgpai22/captionkit/internal/language"
)

var downloadCmd = &cobra.Command{
	Use:   "download [url...]",
	Short: "Download videos with yt-dlp, optionally from a channel feed",
	Long: `Download videos, their info.json, and (when enabled) their captions
into the output directory with yt-dlp.

Examples:
  captionkit download https://www.youtube.com/watch?v=abc -o videos
  captionkit download --feed UCxxxxxxxx --max 5 -o videos`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().String("feed", "", "YouTube channel ID whose recent uploads to download")
	downloadCmd.Flags().Int("max", 0, "Maximum number of feed videos (0 for all in the feed)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	feed, _ := cmd.Flags().GetString("feed")
	max, _ := cmd.Flags().GetInt("max")
	dir, _ := cmd.Flags().GetString("output")
	if dir == "" {
		dir = cfg.Paths.WorkDir
	}

	urls := append([]string(nil), args...)
	if feed != "" {
		entries, err := download.ChannelFeed(ctx, feed, max)
		if err != nil {
			return err
		}
		logger.Infow("channel feed", "channel", feed, "videos", len(entries))
		for _, e := range entries {
			urls = append(urls, e.URL)
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("nothing to download: pass URLs or --feed")
	}

	ytdlp := download.NewYTDLP(download.Options{
		Binary:         cfg.Download.Binary,
		Format:         cfg.Download.Format,
		OutputTemplate: cfg.Download.OutputTemplate,
		WriteSubs:      cfg.Download.WriteSubs,
		SubLanguages:   language.NormalizeList(cfg.Download.SubLanguages),
		Retry:          cfg.RetryPolicy(),
	}, logger)

	out := cmd.OutOrStdout()
	failed := 0
	for _, u := range urls {
		res, err := ytdlp.Download(ctx, u, dir)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			logger.Errorw("download failed", "url", u, "error", err)
			continue
		}
		fmt.Fprintf(out, "Downloaded: %s\n", res.Path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(urls))
	}
	return nil
}
