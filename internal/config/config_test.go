package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, found, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Error("found should be false for a missing file")
	}
	if cfg.Planner.MinSegments != defaultMinSegments {
		t.Errorf("MinSegments = %d, want %d", cfg.Planner.MinSegments, defaultMinSegments)
	}
	if cfg.FFmpeg.Binary != "ffmpeg" {
		t.Errorf("FFmpeg.Binary = %q", cfg.FFmpeg.Binary)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
subtitle_dir = "episodes"

[logging]
level = "DEBUG"

[planner]
min_segments = 2
max_segments = 4

[analysis]
provider = "OpenAI"
model = "gpt-4o"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if !filepath.IsAbs(cfg.Paths.SubtitleDir) {
		t.Errorf("SubtitleDir not absolute: %q", cfg.Paths.SubtitleDir)
	}
	if !strings.HasSuffix(cfg.Paths.SubtitleDir, "episodes") {
		t.Errorf("SubtitleDir = %q", cfg.Paths.SubtitleDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want lowered", cfg.Logging.Level)
	}
	if cfg.Analysis.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.Analysis.Provider)
	}
	if cfg.Planner.MinSegments != 2 || cfg.Planner.MaxSegments != 4 {
		t.Errorf("segment bounds = %d..%d", cfg.Planner.MinSegments, cfg.Planner.MaxSegments)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	cfg.Analysis.Provider = "carrier-pigeon"
	cfg.Planner.MinDurationSeconds = 200
	cfg.Planner.MaxDurationSeconds = 100
	cfg.Planner.MinSegments = 9
	cfg.Planner.MaxSegments = 3

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if len(verr.Problems) != 3 {
		t.Errorf("problems = %v, want 3 entries", verr.Problems)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/clips")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "clips") {
		t.Errorf("ExpandPath = %q", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if _, err := WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}

	cfg, found, err := Load(path)
	if err != nil || !found {
		t.Fatalf("sample config did not load: found=%v err=%v", found, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("sample config invalid: %v", err)
	}
}
