package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError aggregates every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

var validProviders = map[string]struct{}{
	"openrouter": {},
	"openai":     {},
	"none":       {},
}

// Validate checks the configuration for internal consistency. It returns a
// *ValidationError listing every problem rather than stopping at the first.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	var problems []string

	if c.Paths.SubtitleDir == "" {
		problems = append(problems, "paths.subtitle_dir is required")
	}
	if c.Paths.OutputDir == "" {
		problems = append(problems, "paths.output_dir is required")
	}
	if c.Paths.CacheDir == "" {
		problems = append(problems, "paths.cache_dir is required")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if _, ok := validProviders[c.Analysis.Provider]; !ok {
		problems = append(problems, fmt.Sprintf("analysis.provider %q is not one of openrouter, openai, none", c.Analysis.Provider))
	}
	if c.Analysis.Provider != "none" && c.Analysis.Model == "" {
		problems = append(problems, "analysis.model is required when a provider is configured")
	}

	if c.Planner.MinDurationSeconds >= c.Planner.MaxDurationSeconds {
		problems = append(problems, fmt.Sprintf(
			"planner.min_duration_seconds (%.0f) must be below planner.max_duration_seconds (%.0f)",
			c.Planner.MinDurationSeconds, c.Planner.MaxDurationSeconds))
	}
	if c.Planner.MinSegments > c.Planner.MaxSegments {
		problems = append(problems, fmt.Sprintf(
			"planner.min_segments (%d) must not exceed planner.max_segments (%d)",
			c.Planner.MinSegments, c.Planner.MaxSegments))
	}

	if c.Fallback.StepLines > c.Fallback.WindowLines {
		problems = append(problems, fmt.Sprintf(
			"fallback.step_lines (%d) must not exceed fallback.window_lines (%d)",
			c.Fallback.StepLines, c.Fallback.WindowLines))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
