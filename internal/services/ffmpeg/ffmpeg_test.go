package ffmpeg

import (
	"context"
	"os/exec"
	"testing"
)

func TestCutBuildsStreamCopyArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotName = name
		gotArgs = args
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { commandContext = original })

	adapter := New(Config{Binary: "/opt/ffmpeg/bin/ffmpeg", TimeoutSeconds: 30})
	if err := adapter.Cut(context.Background(), "/videos/EP01.mp4", 12.5, 148.0, "/out/EP01_seg01.mp4.partial"); err != nil {
		t.Fatalf("Cut: %v", err)
	}
	if gotName != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("binary = %q", gotName)
	}

	want := map[string]string{
		"-ss": "12.500",
		"-to": "148.000",
		"-i":  "/videos/EP01.mp4",
		"-c":  "copy",
	}
	for flag, value := range want {
		if !hasFlagValue(gotArgs, flag, value) {
			t.Fatalf("args missing %s %s: %v", flag, value, gotArgs)
		}
	}
	if gotArgs[len(gotArgs)-1] != "/out/EP01_seg01.mp4.partial" {
		t.Fatalf("destination not last arg: %v", gotArgs)
	}
}

func TestCutRejectsInvertedRange(t *testing.T) {
	adapter := New(Config{})
	if err := adapter.Cut(context.Background(), "in.mp4", 100, 50, "out.mp4"); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestCutReportsCommandFailure(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	}
	t.Cleanup(func() { commandContext = original })

	adapter := New(Config{})
	if err := adapter.Cut(context.Background(), "in.mp4", 0, 10, "out.mp4"); err == nil {
		t.Fatal("expected command failure to surface")
	}
}

func TestProbeDurationParsesOutput(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "echo", "2712.480000")
	}
	t.Cleanup(func() { commandContext = original })

	adapter := New(Config{})
	seconds, err := adapter.ProbeDuration(context.Background(), "EP01.mp4")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if seconds != 2712.48 {
		t.Fatalf("seconds = %v", seconds)
	}
}

func hasFlagValue(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
