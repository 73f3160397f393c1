package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"storyclip/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The subtitle and video directories are created eagerly; output directories
// are left to the components that own them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfg := &cfgVal
	cfg.Paths.SubtitleDir = filepath.Join(base, "subtitles")
	cfg.Paths.VideoDir = filepath.Join(base, "videos")
	cfg.Paths.OutputDir = filepath.Join(base, "clips")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.ReportDir = filepath.Join(base, "reports")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Analysis.Provider = "none"

	for _, opt := range opts {
		opt(cfg)
	}

	for _, dir := range []string{cfg.Paths.SubtitleDir, cfg.Paths.VideoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return cfg
}

// WithWorkers sets the worker-pool size on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.Workers = workers
	}
}

// WithSegmentBounds overrides the planner count bounds.
func WithSegmentBounds(minSegments, maxSegments int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Planner.MinSegments = minSegments
		cfg.Planner.MaxSegments = maxSegments
	}
}
