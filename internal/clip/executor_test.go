package clip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyclip/internal/analysis"
	"storyclip/internal/fileutil"
	"storyclip/internal/logging"
	"storyclip/internal/planner"
)

// fakeCutter writes a marker file instead of invoking ffmpeg.
type fakeCutter struct {
	calls int
	fail  bool
}

func (c *fakeCutter) Cut(_ context.Context, source string, start, end float64, dest string) error {
	c.calls++
	if c.fail {
		return errors.New("simulated ffmpeg failure")
	}
	content := fmt.Sprintf("cut %s %.3f..%.3f", source, start, end)
	return os.WriteFile(dest, []byte(content), 0o644)
}

func testSegment() planner.Segment {
	return planner.Segment{
		ID:            1,
		StartIndex:    10,
		EndIndex:      14,
		StartTime:     297,
		EndTime:       459,
		Title:         "庭审对峙",
		DramaticScore: 9.1,
		Narration:     "控辩双方在法庭上正面交锋",
		Quotes: []analysis.Quote{
			{Start: 300, End: 305, Text: "我反对！"},
		},
	}
}

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	source := filepath.Join(dir, "EP01.mp4")
	if err := os.WriteFile(source, []byte("video bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return source
}

func TestMaterializeCutsAndRecordsSignature(t *testing.T) {
	outputDir := t.TempDir()
	source := writeSource(t, t.TempDir())
	cutter := &fakeCutter{}
	executor, err := NewExecutor(outputDir, cutter, logging.NewNop())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}

	artifact, err := executor.Materialize(context.Background(), Request{
		EpisodeID:   "EP01",
		Segment:     testSegment(),
		SourceVideo: source,
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if artifact.Reused {
		t.Fatal("first materialization must not report reuse")
	}
	if cutter.calls != 1 {
		t.Fatalf("cutter calls = %d, want 1", cutter.calls)
	}
	if _, err := os.Stat(artifact.VideoPath); err != nil {
		t.Fatalf("video file missing: %v", err)
	}
	if _, err := os.Stat(artifact.NarrationPath); err != nil {
		t.Fatalf("narration file missing: %v", err)
	}
	if strings.HasSuffix(artifact.VideoPath, ".partial") {
		t.Fatalf("partial suffix leaked into artifact path: %s", artifact.VideoPath)
	}

	manifest, err := loadManifest(outputDir)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if manifest.Signatures[filepath.Base(artifact.VideoPath)] != artifact.ContentSignature {
		t.Fatal("signature not recorded in manifest")
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	outputDir := t.TempDir()
	source := writeSource(t, t.TempDir())
	cutter := &fakeCutter{}
	executor, err := NewExecutor(outputDir, cutter, logging.NewNop())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	request := Request{EpisodeID: "EP01", Segment: testSegment(), SourceVideo: source}

	first, err := executor.Materialize(context.Background(), request)
	if err != nil {
		t.Fatalf("first Materialize: %v", err)
	}
	firstSum, err := fileutil.ChecksumSHA256(first.VideoPath)
	if err != nil {
		t.Fatalf("checksum first clip: %v", err)
	}

	second, err := executor.Materialize(context.Background(), request)
	if err != nil {
		t.Fatalf("second Materialize: %v", err)
	}
	if !second.Reused {
		t.Fatal("second run must reuse the existing artifact")
	}
	if cutter.calls != 1 {
		t.Fatalf("cutter calls = %d, want 1 across both runs", cutter.calls)
	}
	secondSum, err := fileutil.ChecksumSHA256(second.VideoPath)
	if err != nil {
		t.Fatalf("checksum second clip: %v", err)
	}
	if firstSum != secondSum {
		t.Fatal("clip bytes changed on idempotent rerun")
	}
}

// reentrantCutter materializes a second segment while the first cut is still
// in flight, mimicking parallel workers sharing one output directory.
type reentrantCutter struct {
	executor *Executor
	source   string
	calls    int
	inner    Artifact
	innerErr error
}

func (c *reentrantCutter) Cut(ctx context.Context, source string, start, end float64, dest string) error {
	c.calls++
	if c.calls == 1 {
		segment := testSegment()
		segment.ID = 2
		segment.StartTime = 600
		segment.EndTime = 760
		segment.Title = "第二段"
		c.inner, c.innerErr = c.executor.Materialize(ctx, Request{
			EpisodeID:   "EP01",
			Segment:     segment,
			SourceVideo: c.source,
		})
	}
	return os.WriteFile(dest, []byte("clip"), 0o644)
}

func TestMaterializeCutsSegmentsInParallel(t *testing.T) {
	outputDir := t.TempDir()
	source := writeSource(t, t.TempDir())
	cutter := &reentrantCutter{source: source}
	executor, err := NewExecutor(outputDir, cutter, logging.NewNop())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	cutter.executor = executor

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	artifact, err := executor.Materialize(ctx, Request{EpisodeID: "EP01", Segment: testSegment(), SourceVideo: source})
	if err != nil {
		t.Fatalf("outer Materialize: %v", err)
	}
	if cutter.innerErr != nil {
		t.Fatalf("segment cut while another was in flight failed: %v", cutter.innerErr)
	}
	for _, path := range []string{artifact.VideoPath, cutter.inner.VideoPath} {
		if !fileutil.NonEmptyFile(path) {
			t.Fatalf("clip missing: %s", path)
		}
	}

	manifest, err := loadManifest(outputDir)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if manifest.Signatures[filepath.Base(artifact.VideoPath)] != artifact.ContentSignature {
		t.Fatal("outer signature not recorded")
	}
	if manifest.Signatures[filepath.Base(cutter.inner.VideoPath)] != cutter.inner.ContentSignature {
		t.Fatal("inner signature not recorded")
	}
}

func TestMaterializeRecutsWhenSegmentChanges(t *testing.T) {
	outputDir := t.TempDir()
	source := writeSource(t, t.TempDir())
	cutter := &fakeCutter{}
	executor, err := NewExecutor(outputDir, cutter, logging.NewNop())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}

	segment := testSegment()
	if _, err := executor.Materialize(context.Background(), Request{EpisodeID: "EP01", Segment: segment, SourceVideo: source}); err != nil {
		t.Fatalf("first Materialize: %v", err)
	}

	// Same id and title, different boundaries: signature must differ and
	// force a new cut.
	segment.EndTime = 465
	artifact, err := executor.Materialize(context.Background(), Request{EpisodeID: "EP01", Segment: segment, SourceVideo: source})
	if err != nil {
		t.Fatalf("second Materialize: %v", err)
	}
	if artifact.Reused {
		t.Fatal("changed boundaries must not reuse the stale clip")
	}
	if cutter.calls != 2 {
		t.Fatalf("cutter calls = %d, want 2", cutter.calls)
	}
}

func TestMaterializeCuttingFailureIsPerSegment(t *testing.T) {
	outputDir := t.TempDir()
	source := writeSource(t, t.TempDir())
	executor, err := NewExecutor(outputDir, &fakeCutter{fail: true}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}

	artifact, err := executor.Materialize(context.Background(), Request{EpisodeID: "EP01", Segment: testSegment(), SourceVideo: source})
	if !errors.Is(err, ErrCutting) {
		t.Fatalf("err = %v, want ErrCutting", err)
	}
	if _, statErr := os.Stat(artifact.VideoPath); !os.IsNotExist(statErr) {
		t.Fatal("failed cut left a clip file behind")
	}
	if _, statErr := os.Stat(artifact.VideoPath + ".partial"); !os.IsNotExist(statErr) {
		t.Fatal("failed cut left a partial file behind")
	}
}

func TestMaterializeMissingSourceIsCuttingFailure(t *testing.T) {
	executor, err := NewExecutor(t.TempDir(), &fakeCutter{}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	_, err = executor.Materialize(context.Background(), Request{
		EpisodeID:   "EP01",
		Segment:     testSegment(),
		SourceVideo: "/nonexistent/EP01.mp4",
	})
	if !errors.Is(err, ErrCutting) {
		t.Fatalf("err = %v, want ErrCutting", err)
	}
}

func TestSignatureChangesWithEveryComponent(t *testing.T) {
	base := Signature("EP01", 1, 297, 459, "庭审对峙")
	if len(base) != 16 {
		t.Fatalf("signature length = %d, want 16", len(base))
	}
	variants := []string{
		Signature("EP02", 1, 297, 459, "庭审对峙"),
		Signature("EP01", 2, 297, 459, "庭审对峙"),
		Signature("EP01", 1, 298, 459, "庭审对峙"),
		Signature("EP01", 1, 297, 460, "庭审对峙"),
		Signature("EP01", 1, 297, 459, "另一个标题"),
	}
	for i, variant := range variants {
		if variant == base {
			t.Fatalf("variant %d collides with base signature", i)
		}
	}
	if again := Signature("EP01", 1, 297, 459, "庭审对峙"); again != base {
		t.Fatal("signature not deterministic")
	}
}

func TestRenderNarrationTemplate(t *testing.T) {
	content := RenderNarration(Request{
		EpisodeID:      "EP02",
		Segment:        testSegment(),
		PreviousBridge: "上集法庭激辩尚未落幕",
		NextSetup:      "真相即将浮出水面",
	})
	for _, want := range []string{
		"片段标题: 庭审对峙",
		"时间范围: 00:04:57,000 --> 00:07:39,000",
		"时长: 162.0秒",
		"戏剧张力: 9.1/10",
		"关键台词:",
		"我反对！",
		"衔接上集:",
		"引出下集:",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("narration missing %q:\n%s", want, content)
		}
	}
}
