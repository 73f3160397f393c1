package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyclip/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteSample(targetPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", written)
			fmt.Fprintln(out, "Edit the file to set analysis.api_key (or export STORYCLIP_API_KEY) before running.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[paths]\n")
			fmt.Fprintf(out, "subtitle_dir = %q\n", cfg.Paths.SubtitleDir)
			fmt.Fprintf(out, "video_dir = %q\n", cfg.Paths.VideoDir)
			fmt.Fprintf(out, "output_dir = %q\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "cache_dir = %q\n", cfg.Paths.CacheDir)
			fmt.Fprintf(out, "report_dir = %q\n", cfg.Paths.ReportDir)
			fmt.Fprintf(out, "log_dir = %q\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "\n[analysis]\n")
			fmt.Fprintf(out, "provider = %q\n", cfg.Analysis.Provider)
			fmt.Fprintf(out, "model = %q\n", cfg.Analysis.Model)
			fmt.Fprintf(out, "api_key_set = %t\n", cfg.Analysis.APIKey != "")
			fmt.Fprintf(out, "timeout_seconds = %d\n", cfg.Analysis.TimeoutSeconds)
			fmt.Fprintf(out, "\n[planner]\n")
			fmt.Fprintf(out, "min_duration_seconds = %.0f\n", cfg.Planner.MinDurationSeconds)
			fmt.Fprintf(out, "max_duration_seconds = %.0f\n", cfg.Planner.MaxDurationSeconds)
			fmt.Fprintf(out, "min_segments = %d\n", cfg.Planner.MinSegments)
			fmt.Fprintf(out, "max_segments = %d\n", cfg.Planner.MaxSegments)
			fmt.Fprintf(out, "\n[workflow]\n")
			fmt.Fprintf(out, "workers = %d\n", cfg.Workflow.Workers)
			return nil
		},
	}
}
