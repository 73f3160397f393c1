package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// commandContext is swapped out by tests to avoid invoking real binaries.
var commandContext = exec.CommandContext

// Config selects the binaries and the per-invocation timeout.
type Config struct {
	Binary         string
	ProbeBinary    string
	TimeoutSeconds int
}

// Adapter executes ffmpeg cut and probe operations.
type Adapter struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
}

// New builds an adapter, defaulting to binaries found on PATH.
func New(cfg Config) *Adapter {
	binary := cfg.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	probe := cfg.ProbeBinary
	if probe == "" {
		probe = "ffprobe"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Adapter{ffmpeg: binary, ffprobe: probe, timeout: timeout}
}

// Cut extracts [start, end) seconds of source into dest without re-encoding.
// Stream copy keeps the operation fast and bit-exact; the cut lands on the
// nearest preceding keyframe, which is acceptable for highlight clips.
func (a *Adapter) Cut(ctx context.Context, source string, start, end float64, dest string) error {
	if end <= start {
		return fmt.Errorf("invalid cut range %.3f..%.3f", start, end)
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", source,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		dest,
	}
	cmd := commandContext(ctx, a.ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cut timed out after %s: %w", a.timeout, ctx.Err())
		}
		return fmt.Errorf("ffmpeg cut: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ProbeDuration returns the container duration of path in seconds.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := commandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w: %s", err, strings.TrimSpace(string(output)))
	}
	value := strings.TrimSpace(string(output))
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", value, err)
	}
	return seconds, nil
}

// Available reports whether the configured ffmpeg binary can be resolved.
func (a *Adapter) Available() error {
	if _, err := exec.LookPath(a.ffmpeg); err != nil {
		return fmt.Errorf("ffmpeg binary %q not found: %w", a.ffmpeg, err)
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
