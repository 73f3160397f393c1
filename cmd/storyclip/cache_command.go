package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storyclip/internal/analysiscache"
	"storyclip/internal/report"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the analysis cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheInvalidateCommand(ctx))
	return cacheCmd
}

func cacheManager(ctx *commandContext) (*analysiscache.Manager, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.newLogger()
	if err != nil {
		return nil, err
	}
	return analysiscache.NewManager(cfg.Paths.CacheDir, logger)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached analysis results",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			results, err := manager.List()
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				fingerprint := result.Fingerprint
				if len(fingerprint) > 16 {
					fingerprint = fingerprint[:16]
				}
				rows = append(rows, []string{
					result.EpisodeID,
					fingerprint,
					result.Source,
					fmt.Sprintf("%d", len(result.Segments)),
					result.GeneratedAt.UTC().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderTable(
				[]string{"Episode", "Fingerprint", "Source", "Segments", "Generated"},
				rows,
				[]report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignLeft, report.AlignRight, report.AlignLeft},
			))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached analysis result",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			removed, err := manager.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache records\n", removed)
			return nil
		},
	}
}

func newCacheInvalidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <episode-id> <fingerprint>",
		Short: "Delete one cached analysis result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			if err := manager.Invalidate(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", args[1])
			return nil
		},
	}
}
