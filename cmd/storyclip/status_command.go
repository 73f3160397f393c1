package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storyclip/internal/services/ffmpeg"
)

// newStatusCommand summarizes the working state: resolved directories,
// cache size, produced clips, and ffmpeg availability.
func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline directories and cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Subtitles: %s (%d files)\n", cfg.Paths.SubtitleDir, countFiles(cfg.Paths.SubtitleDir, ".srt"))
			fmt.Fprintf(out, "Videos:    %s\n", cfg.Paths.VideoDir)
			fmt.Fprintf(out, "Clips:     %s (%d clips)\n", cfg.Paths.OutputDir, countFiles(cfg.Paths.OutputDir, ".mp4"))
			fmt.Fprintf(out, "Cache:     %s (%d records)\n", cfg.Paths.CacheDir, countFiles(cfg.Paths.CacheDir, ".json"))
			fmt.Fprintf(out, "Reports:   %s\n", cfg.Paths.ReportDir)
			fmt.Fprintf(out, "Analysis:  provider=%s model=%s\n", cfg.Analysis.Provider, cfg.Analysis.Model)

			cutter := ffmpeg.New(ffmpeg.Config{Binary: cfg.FFmpeg.Binary})
			if err := cutter.Available(); err != nil {
				fmt.Fprintf(out, "FFmpeg:    unavailable (%v)\n", err)
			} else {
				fmt.Fprintln(out, "FFmpeg:    available")
			}
			return nil
		},
	}
}

func countFiles(dir, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			count++
		}
	}
	return count
}
