package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SubtitleDir string `toml:"subtitle_dir"`
	VideoDir    string `toml:"video_dir"`
	OutputDir   string `toml:"output_dir"`
	CacheDir    string `toml:"cache_dir"`
	ReportDir   string `toml:"report_dir"`
	LogDir      string `toml:"log_dir"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Analysis contains configuration for the external content-understanding service.
type Analysis struct {
	Provider       string `toml:"provider"` // "openrouter", "openai", or "none"
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Planner contains segment planning bounds.
type Planner struct {
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	MaxDurationSeconds float64 `toml:"max_duration_seconds"`
	MinSegments        int     `toml:"min_segments"`
	MaxSegments        int     `toml:"max_segments"`
}

// Fallback contains the rule-based scorer configuration used when the
// analysis service is unavailable.
type Fallback struct {
	WindowLines       int                 `toml:"window_lines"`
	StepLines         int                 `toml:"step_lines"`
	StorylineKeywords map[string][]string `toml:"storyline_keywords"`
	TensionKeywords   []string            `toml:"tension_keywords"`
	EmotionKeywords   []string            `toml:"emotion_keywords"`
}

// FFmpeg contains configuration for the external cutting tool.
type FFmpeg struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains batch processing configuration.
type Workflow struct {
	Workers int `toml:"workers"`
}

// Config is the root configuration object.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
	Analysis Analysis `toml:"analysis"`
	Planner  Planner  `toml:"planner"`
	Fallback Fallback `toml:"fallback"`
	FFmpeg   FFmpeg   `toml:"ffmpeg"`
	Workflow Workflow `toml:"workflow"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return "~/.config/storyclip/config.toml"
}

// Load reads configuration from path, applying defaults for missing values.
// A missing file is not an error; defaults are returned with found=false.
func Load(path string) (cfg *Config, found bool, err error) {
	base := Default()
	cfg = &base

	resolved, err := ExpandPath(firstNonEmpty(path, DefaultConfigPath()))
	if err != nil {
		return nil, false, err
	}

	data, readErr := os.ReadFile(resolved)
	switch {
	case readErr == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
		found = true
	case errors.Is(readErr, fs.ErrNotExist):
		found = false
	default:
		return nil, false, fmt.Errorf("read config %s: %w", resolved, readErr)
	}

	if err := cfg.normalize(); err != nil {
		return nil, false, err
	}
	return cfg, found, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) (string, error) {
	resolved, err := ExpandPath(firstNonEmpty(path, DefaultConfigPath()))
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(resolved); statErr == nil {
		return "", fmt.Errorf("config already exists at %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return resolved, nil
}

// EnsureDirectories creates every configured directory that stages write to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.CacheDir, c.Paths.ReportDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
