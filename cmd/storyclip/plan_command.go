package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storyclip/internal/analysis"
	"storyclip/internal/analysiscache"
	"storyclip/internal/episode"
	"storyclip/internal/planner"
	"storyclip/internal/report"
	"storyclip/internal/subtitle"
)

// newPlanCommand previews the planned segments for one subtitle file without
// cutting anything. Analysis still goes through the cache.
func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <subtitle-file>",
		Short: "Preview planned segments for a subtitle file without cutting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			content, err := subtitle.ReadFile(args[0])
			if err != nil {
				return err
			}
			lines, warnings, err := subtitle.Parse(content)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, warning := range warnings {
				fmt.Fprintf(out, "warning: block %d skipped: %s\n", warning.Block, warning.Message)
			}

			episodeID := episode.IDFromFilename(args[0])
			epCtx := episode.BuildContext(episodeID, lines, episode.NumberFromFilename(args[0]))

			primary, fallback, err := buildAnalyzers(cfg, logger)
			if err != nil {
				return err
			}
			cache, err := analysiscache.NewManager(cfg.Paths.CacheDir, logger)
			if err != nil {
				return err
			}

			params := analysisParams(cfg)
			fingerprint := analysis.Fingerprint(epCtx.RawTextBlock, params)
			request := analysis.Request{
				EpisodeID:      epCtx.EpisodeID,
				TextBlock:      epCtx.RawTextBlock,
				Lines:          epCtx.Lines,
				SeriesPosition: epCtx.SeriesPosition,
			}
			result, cached, err := cache.GetOrCompute(cmd.Context(), episodeID, fingerprint, func(computeCtx context.Context) (analysis.Result, error) {
				if primary != nil {
					outcome, analyzeErr := primary.Analyze(computeCtx, request)
					if analyzeErr == nil {
						return analysis.Result{GenreGuess: outcome.GenreGuess, Segments: outcome.Segments, SeriesNotes: outcome.SeriesNotes, Source: "llm"}, nil
					}
					if !errors.Is(analyzeErr, analysis.ErrUnavailable) {
						return analysis.Result{}, analyzeErr
					}
					fmt.Fprintln(out, "analysis service unavailable, using rule-based fallback")
				}
				outcome, fallbackErr := fallback.Analyze(computeCtx, request)
				if fallbackErr != nil {
					return analysis.Result{}, fallbackErr
				}
				return analysis.Result{GenreGuess: outcome.GenreGuess, Segments: outcome.Segments, SeriesNotes: outcome.SeriesNotes, Source: "fallback"}, nil
			})
			if err != nil {
				return err
			}

			plannerCfg := planner.Config{
				MinDurationSeconds: cfg.Planner.MinDurationSeconds,
				MaxDurationSeconds: cfg.Planner.MaxDurationSeconds,
				MinSegments:        cfg.Planner.MinSegments,
				MaxSegments:        cfg.Planner.MaxSegments,
			}
			plan, err := plannerCfg.Plan(result.Segments, lines)
			if err != nil && !errors.Is(err, planner.ErrShortfall) {
				return err
			}

			fmt.Fprintf(out, "Episode %s  fingerprint %s  analysis %s", episodeID, fingerprint[:16], result.Source)
			if cached {
				fmt.Fprint(out, " (cached)")
			}
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(plan.Segments))
			for _, segment := range plan.Segments {
				rows = append(rows, []string{
					fmt.Sprintf("%d", segment.ID),
					segment.Title,
					subtitle.FormatTimestamp(segment.StartTime),
					subtitle.FormatTimestamp(segment.EndTime),
					fmtSeconds(segment.Duration()),
					fmt.Sprintf("%.1f", segment.DramaticScore),
				})
			}
			fmt.Fprintln(out, report.RenderTable(
				[]string{"#", "Title", "Start", "End", "Duration", "Score"},
				rows,
				[]report.Alignment{report.AlignRight, report.AlignLeft, report.AlignLeft, report.AlignLeft, report.AlignRight, report.AlignRight},
			))
			if plan.Shortfall {
				fmt.Fprintf(out, "warning: only %d segments survived (minimum %d)\n", len(plan.Segments), cfg.Planner.MinSegments)
			}
			return nil
		},
	}
}
