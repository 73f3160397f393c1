package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading tilde to the user's home directory and
// converts the result to an absolute path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}

func (c *Config) normalize() error {
	dirs := []*string{
		&c.Paths.SubtitleDir,
		&c.Paths.VideoDir,
		&c.Paths.OutputDir,
		&c.Paths.CacheDir,
		&c.Paths.ReportDir,
		&c.Paths.LogDir,
	}
	for _, dir := range dirs {
		expanded, err := ExpandPath(*dir)
		if err != nil {
			return err
		}
		*dir = expanded
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	c.Analysis.Provider = strings.ToLower(strings.TrimSpace(c.Analysis.Provider))
	c.Analysis.BaseURL = strings.TrimRight(strings.TrimSpace(c.Analysis.BaseURL), "/")
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	if c.Analysis.APIKey == "" {
		c.Analysis.APIKey = firstNonEmpty(os.Getenv("STORYCLIP_API_KEY"), os.Getenv("OPENROUTER_API_KEY"), os.Getenv("OPENAI_API_KEY"))
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeout
	}

	if c.Planner.MinSegments <= 0 {
		c.Planner.MinSegments = defaultMinSegments
	}
	if c.Planner.MaxSegments <= 0 {
		c.Planner.MaxSegments = defaultMaxSegments
	}
	if c.Planner.MinDurationSeconds <= 0 {
		c.Planner.MinDurationSeconds = defaultMinDurationSeconds
	}
	if c.Planner.MaxDurationSeconds <= 0 {
		c.Planner.MaxDurationSeconds = defaultMaxDurationSeconds
	}

	if c.Fallback.WindowLines <= 0 {
		c.Fallback.WindowLines = defaultFallbackWindowLines
	}
	if c.Fallback.StepLines <= 0 {
		c.Fallback.StepLines = defaultFallbackStepLines
	}

	c.FFmpeg.Binary = firstNonEmpty(strings.TrimSpace(c.FFmpeg.Binary), defaultFFmpegBinary)
	if c.FFmpeg.TimeoutSeconds <= 0 {
		c.FFmpeg.TimeoutSeconds = defaultFFmpegTimeout
	}

	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	return nil
}
