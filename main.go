package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"video-pipeline/config"
	"video-pipeline/ffmpeg"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "video-pipeline",
		Short:         "Upload, trim, subtitle and render videos over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "probe <file>",
		Short: "Print the metadata ffprobe reports for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), configPath, args[0])
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "video-pipeline %s (built %s)\n", config.GetGitSHA(), config.GetBuildDate())
		},
	})
	return rootCmd
}

func runProbe(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	runner := ffmpeg.NewRunner(toolsFor(cfg), log)
	meta, err := runner.Probe(ctx, file)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func toolsFor(cfg config.Config) ffmpeg.Tools {
	return ffmpeg.Tools{
		FfmpegPath:    cfg.FfmpegPath,
		FfprobePath:   cfg.FfprobePath,
		Timeout:       cfg.ToolTimeout(),
		MaxConcurrent: cfg.MaxConcurrentTools,
	}
}
