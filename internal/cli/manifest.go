package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/captionkit/internal/config"
	"github.com/mgpai22/captionkit/internal/language"
	"github.com/mgpai22/captionkit/internal/library"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [directory]",
	Short: "Assign channels and write the upload manifest without running any stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifest,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the captionkit configuration",
}

var configInitCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Write a sample configuration file",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE:        runConfigInit,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	manifestCmd.Flags().
		StringSliceP("target-language", "t", nil, "Caption languages required per video (default from config)")
}

func runManifest(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := requireDir(dir); err != nil {
		return err
	}
	inputLang, _ := cmd.Flags().GetString("language")
	source := language.Normalize(sourceLanguage(inputLang))

	videos, err := library.Scan(dir, cfg.Pipeline.Recursive)
	if err != nil {
		return err
	}
	assignments := library.AssignChannels(videos, cfg.Channels)
	if len(cfg.Channels) > 0 {
		if _, err := library.WriteAssignmentsCSV(dir, assignments); err != nil {
			return fmt.Errorf("write channel assignments: %w", err)
		}
	}

	var langs []string
	for _, lang := range language.NormalizeList(targetLanguages(cmd)) {
		if lang != source {
			langs = append(langs, lang)
		}
	}
	m, err := library.BuildManifest(dir, videos, assignments, library.ManifestOptions{
		SourceLanguage: source,
		Languages:      langs,
	})
	if err != nil {
		return err
	}
	path, err := library.WriteManifest(dir, m)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(m.Skipped))
	for _, s := range m.Skipped {
		rows = append(rows, []string{s.File, joinComma(s.Missing)})
	}
	out := cmd.OutOrStdout()
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Not ready", "Missing"}, rows, nil, isTerminalOutput(cmd)))
	}
	fmt.Fprintf(out, "Manifest: %s (%d ready of %d)\n", path, len(m.Videos), len(videos))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	if err := config.CreateSample(expanded); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config: %s\n", expanded)
	return nil
}
