package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"storyclip/internal/analysis"
	"storyclip/internal/analysiscache"
	"storyclip/internal/clip"
	"storyclip/internal/config"
	"storyclip/internal/report"
	"storyclip/internal/services/ffmpeg"
	"storyclip/internal/services/llm"
	openaiservice "storyclip/internal/services/openai"
	"storyclip/internal/store"
	"storyclip/internal/workflow"
)

// buildAnalyzers returns the primary analyzer for the configured provider
// (nil when provider is "none") plus the rule-based fallback.
func buildAnalyzers(cfg *config.Config, logger *slog.Logger) (analysis.Analyzer, analysis.Analyzer, error) {
	fallback := analysis.NewFallbackScorer(analysis.FallbackOptions{
		WindowLines: cfg.Fallback.WindowLines,
		StepLines:   cfg.Fallback.StepLines,
		MaxSegments: cfg.Planner.MaxSegments,
		Storylines:  cfg.Fallback.StorylineKeywords,
		Tension:     cfg.Fallback.TensionKeywords,
		Emotion:     cfg.Fallback.EmotionKeywords,
	})

	switch cfg.Analysis.Provider {
	case "none":
		return nil, fallback, nil
	case "openai":
		client, err := openaiservice.NewClient(openaiservice.Config{
			APIKey:         cfg.Analysis.APIKey,
			BaseURL:        cfg.Analysis.BaseURL,
			Model:          cfg.Analysis.Model,
			TimeoutSeconds: cfg.Analysis.TimeoutSeconds,
		})
		if err != nil {
			return nil, nil, err
		}
		return analysis.NewLLMAnalyzer(client, logger), fallback, nil
	default:
		// OpenRouter and other OpenAI-compatible gateways go through the
		// generic HTTP client.
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.Analysis.APIKey,
			BaseURL:        cfg.Analysis.BaseURL,
			Model:          cfg.Analysis.Model,
			TimeoutSeconds: cfg.Analysis.TimeoutSeconds,
		})
		return analysis.NewLLMAnalyzer(client, logger), fallback, nil
	}
}

// buildPipeline assembles the full pipeline. The returned cleanup closes the
// run-state store.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*workflow.Pipeline, func(), error) {
	primary, fallback, err := buildAnalyzers(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cache, err := analysiscache.NewManager(cfg.Paths.CacheDir, logger)
	if err != nil {
		return nil, nil, err
	}
	cutter := ffmpeg.New(ffmpeg.Config{
		Binary:         cfg.FFmpeg.Binary,
		TimeoutSeconds: cfg.FFmpeg.TimeoutSeconds,
	})
	executor, err := clip.NewExecutor(cfg.Paths.OutputDir, cutter, logger)
	if err != nil {
		return nil, nil, err
	}
	runStore, err := store.Open(filepath.Join(cfg.Paths.LogDir, "run.db"))
	if err != nil {
		return nil, nil, err
	}
	reports, err := report.NewWriter(cfg.Paths.ReportDir)
	if err != nil {
		_ = runStore.Close()
		return nil, nil, err
	}

	pipeline, err := workflow.New(workflow.Options{
		Config:   cfg,
		Logger:   logger,
		Cache:    cache,
		Primary:  primary,
		Fallback: fallback,
		Params:   analysisParams(cfg),
		Executor: executor,
		Store:    runStore,
		Reports:  reports,
	})
	if err != nil {
		_ = runStore.Close()
		return nil, nil, err
	}
	cleanup := func() { _ = runStore.Close() }
	return pipeline, cleanup, nil
}

func analysisParams(cfg *config.Config) analysis.Params {
	return analysis.Params{
		Provider: cfg.Analysis.Provider,
		Model:    cfg.Analysis.Model,
	}
}

func fmtSeconds(seconds float64) string {
	return fmt.Sprintf("%.1fs", seconds)
}
