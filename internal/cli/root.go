package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/config"
	"github.com/mgpai22/captionkit/internal/logging"
)

// commands annotated with this key run without loading the config file
const skipConfigAnnotation = "captionkit/skip-config"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "captionkit",
	Short: "Caption, translate, and package a folder of videos",
	Long: `captionkit prepares videos for upload: it generates captions,
translates them segment by segment with an LLM, writes titles,
descriptions, tags, and thumbnails, and emits an upload manifest.

Run a single step on one file or "captionkit run <dir>" for the whole
folder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := cmd.Annotations[skipConfigAnnotation]; ok {
			logger = logging.NewLogger(verbose)
			return nil
		}
		if err := config.LoadDotEnv(""); err != nil {
			return err
		}
		loaded, path, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		if exists {
			logger.Debugw("loaded config", "path", path)
		} else {
			logger.Debugw("no config file, using defaults", "path", path)
		}
		return nil
	},
}

// ExecuteContext runs the root command; canceling ctx stops the current
// stage.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ./captionkit.toml or ~/.config/captionkit/config.toml)")
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file or directory")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Source language code (e.g., en, es, fr)")
}

// splitList accepts repeated and comma separated flag values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory not found: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
