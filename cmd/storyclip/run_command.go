package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyclip/internal/report"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every subtitle file in the configured directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			pipeline, cleanup, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := pipeline.Run(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RunTable(result.Episodes))
			summary := result.Summary
			fmt.Fprintf(out, "\nRun %s: %d episodes (%d failed), %d new analysis calls, %d cache hits, %d new clips, %d reused\n",
				summary.RunID, summary.Episodes, summary.FailedEpisodes,
				summary.NewAnalysisCalls, summary.CachedAnalysis,
				summary.NewEncodes, summary.ReusedClips,
			)
			fmt.Fprintf(out, "Report written to %s\n", result.ReportPath)
			return nil
		},
	}
}
