package planner

import (
	"errors"
	"reflect"
	"testing"

	"storyclip/internal/analysis"
	"storyclip/internal/subtitle"
)

// fortyLines spans 00:00:00 to roughly 00:22:00, one line every 33 seconds.
func fortyLines() []subtitle.Line {
	lines := make([]subtitle.Line, 40)
	for i := range lines {
		start := float64(i) * 33
		lines[i] = subtitle.Line{
			Index: i + 1,
			Start: start,
			End:   start + 30,
			Text:  "台词内容",
		}
	}
	return lines
}

func defaultConfig() Config {
	return Config{
		MinDurationSeconds: 120,
		MaxDurationSeconds: 180,
		MinSegments:        1,
		MaxSegments:        5,
	}
}

func TestPlanSnapsToLineBoundaries(t *testing.T) {
	lines := fortyLines()
	raw := []analysis.RawSegment{
		{CandidateStart: 312, CandidateEnd: 475, Title: "庭审对峙", DramaticScore: 9.1},
	}

	plan, err := defaultConfig().Plan(raw, lines)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(plan.Segments))
	}
	segment := plan.Segments[0]

	boundaries := map[float64]bool{}
	for _, line := range lines {
		boundaries[line.Start] = true
	}
	ends := map[float64]bool{}
	for _, line := range lines {
		ends[line.End] = true
	}
	if !boundaries[segment.StartTime] || !ends[segment.EndTime] {
		t.Fatalf("segment %v does not align to line boundaries", segment)
	}
	if segment.StartTime > 312 {
		t.Fatalf("start %.1f falls after candidate start", segment.StartTime)
	}
	if d := segment.Duration(); d < 120 || d > 180 {
		t.Fatalf("duration %.1f outside bounds", d)
	}
}

func TestPlanOverlapKeepsHigherScoreIntact(t *testing.T) {
	lines := fortyLines()
	raw := []analysis.RawSegment{
		{CandidateStart: 312, CandidateEnd: 475, Title: "高分段", DramaticScore: 9.1},
		{CandidateStart: 450, CandidateEnd: 540, Title: "低分段", DramaticScore: 6.0},
	}
	config := defaultConfig()
	config.MinSegments = 2

	// The truncated remainder of the lower-scored segment falls under the
	// minimum duration and is dropped, so the plan reports a shortfall.
	plan, err := config.Plan(raw, lines)
	if !errors.Is(err, ErrShortfall) {
		t.Fatalf("err = %v, want ErrShortfall", err)
	}
	if len(plan.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(plan.Segments))
	}
	winner := plan.Segments[0]
	if winner.DramaticScore != 9.1 {
		t.Fatalf("kept segment score = %v, want 9.1", winner.DramaticScore)
	}
	if winner.StartIndex != 10 || winner.EndIndex != 14 {
		t.Fatalf("winner range = %d..%d, want 10..14", winner.StartIndex, winner.EndIndex)
	}
}

func TestPlanOverlapTruncatesLowerScoreWhenRemainderFits(t *testing.T) {
	lines := fortyLines()
	config := defaultConfig()
	config.MinDurationSeconds = 60
	config.MinSegments = 2
	raw := []analysis.RawSegment{
		{CandidateStart: 312, CandidateEnd: 475, Title: "高分段", DramaticScore: 9.1},
		{CandidateStart: 450, CandidateEnd: 540, Title: "低分段", DramaticScore: 6.0},
	}

	plan, err := config.Plan(raw, lines)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(plan.Segments))
	}
	first, second := plan.Segments[0], plan.Segments[1]
	if first.DramaticScore != 9.1 {
		t.Fatalf("first segment not the winner: %+v", first)
	}
	if second.StartIndex <= first.EndIndex {
		t.Fatalf("segments overlap: %d..%d then %d..%d", first.StartIndex, first.EndIndex, second.StartIndex, second.EndIndex)
	}
	if second.StartIndex != first.EndIndex+1 {
		t.Fatalf("truncated segment starts at %d, want %d", second.StartIndex, first.EndIndex+1)
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	lines := fortyLines()
	raw := []analysis.RawSegment{
		{CandidateStart: 30, CandidateEnd: 170, Title: "一", DramaticScore: 7.2},
		{CandidateStart: 400, CandidateEnd: 530, Title: "二", DramaticScore: 8.8},
		{CandidateStart: 700, CandidateEnd: 845, Title: "三", DramaticScore: 6.5},
		{CandidateStart: 1000, CandidateEnd: 1130, Title: "四", DramaticScore: 5.1},
	}
	config := Config{MinDurationSeconds: 120, MaxDurationSeconds: 180, MinSegments: 3, MaxSegments: 5}

	first, err := config.Plan(raw, lines)
	if err != nil {
		t.Fatalf("first Plan: %v", err)
	}
	second, err := config.Plan(raw, lines)
	if err != nil {
		t.Fatalf("second Plan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ:\n%+v\n%+v", first, second)
	}
}

func TestPlanThresholdLadderAdmitsLowerScores(t *testing.T) {
	lines := fortyLines()
	raw := []analysis.RawSegment{
		{CandidateStart: 30, CandidateEnd: 170, Title: "强", DramaticScore: 8.5},
		{CandidateStart: 400, CandidateEnd: 530, Title: "中", DramaticScore: 5.0},
		{CandidateStart: 800, CandidateEnd: 930, Title: "弱", DramaticScore: 3.2},
	}
	config := Config{MinDurationSeconds: 120, MaxDurationSeconds: 180, MinSegments: 3, MaxSegments: 5}

	plan, err := config.Plan(raw, lines)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Segments) != 3 {
		t.Fatalf("segments = %d, want 3 after ladder relaxation", len(plan.Segments))
	}
	if plan.Threshold != 2.0 {
		t.Fatalf("final threshold = %v, want 2.0", plan.Threshold)
	}
	for i, segment := range plan.Segments {
		if segment.ID != i+1 {
			t.Fatalf("segment %d has id %d, want contiguous ids", i, segment.ID)
		}
	}
}

func TestPlanShortfallReportedNeverFabricated(t *testing.T) {
	lines := fortyLines()
	raw := []analysis.RawSegment{
		{CandidateStart: 30, CandidateEnd: 170, Title: "唯一", DramaticScore: 7.0},
	}
	config := Config{MinDurationSeconds: 120, MaxDurationSeconds: 180, MinSegments: 3, MaxSegments: 5}

	plan, err := config.Plan(raw, lines)
	if !errors.Is(err, ErrShortfall) {
		t.Fatalf("err = %v, want ErrShortfall", err)
	}
	if !plan.Shortfall {
		t.Fatal("Shortfall flag not set")
	}
	if len(plan.Segments) != 1 {
		t.Fatalf("segments = %d, want the single survivor", len(plan.Segments))
	}
}

func TestPlanCapsAtMaxSegments(t *testing.T) {
	lines := fortyLines()
	var raw []analysis.RawSegment
	starts := []float64{0, 200, 400, 600, 800, 1000}
	for i, start := range starts {
		raw = append(raw, analysis.RawSegment{
			CandidateStart: start,
			CandidateEnd:   start + 130,
			Title:          "段",
			DramaticScore:  9.5 - float64(i)*0.25,
		})
	}
	config := Config{MinDurationSeconds: 120, MaxDurationSeconds: 180, MinSegments: 3, MaxSegments: 5}

	plan, err := config.Plan(raw, lines)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Segments) != 5 {
		t.Fatalf("segments = %d, want max of 5", len(plan.Segments))
	}
	// The lowest-scored candidate is the one cut.
	for _, segment := range plan.Segments {
		if segment.DramaticScore == 8.25 {
			t.Fatal("lowest-scored segment survived the cap")
		}
	}
}

func TestPlanDropsInvertedAndUnboundableSegments(t *testing.T) {
	lines := fortyLines()
	raw := []analysis.RawSegment{
		{CandidateStart: 500, CandidateEnd: 400, Title: "倒置", DramaticScore: 9.0},
		{CandidateStart: 30, CandidateEnd: 170, Title: "正常", DramaticScore: 7.0},
	}

	plan, err := defaultConfig().Plan(raw, lines)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(plan.Segments))
	}
	if len(plan.Warnings) == 0 {
		t.Fatal("inverted segment produced no warning")
	}
}

func TestPlanDropsSegmentExceedingMaxDuration(t *testing.T) {
	// The middle line alone runs 230 seconds, so no boundary pair can keep
	// the candidate inside the 120..180 window.
	lines := []subtitle.Line{
		{Index: 1, Start: 0, End: 30, Text: "开场"},
		{Index: 2, Start: 33, End: 263, Text: "独白"},
		{Index: 3, Start: 266, End: 296, Text: "收尾"},
	}
	raw := []analysis.RawSegment{
		{CandidateStart: 35, CandidateEnd: 250, Title: "独白", DramaticScore: 9.0},
	}

	plan, err := defaultConfig().Plan(raw, lines)
	if !errors.Is(err, ErrShortfall) {
		t.Fatalf("err = %v, want ErrShortfall", err)
	}
	if len(plan.Segments) != 0 {
		t.Fatalf("segments = %d, want 0: %+v", len(plan.Segments), plan.Segments)
	}
	if len(plan.Warnings) == 0 {
		t.Fatal("dropped segment produced no warning")
	}
	for _, segment := range plan.Segments {
		if d := segment.Duration(); d > 180 {
			t.Fatalf("segment duration %.1f exceeds maximum", d)
		}
	}
}

func TestPlanSnapEndHandlesNonMonotoneLineEnds(t *testing.T) {
	// A long line overlapping the shorter one after it: the end must snap to
	// the first line that reaches the candidate end, not a later one.
	lines := []subtitle.Line{
		{Index: 1, Start: 0, End: 30, Text: "开场"},
		{Index: 2, Start: 100, End: 400, Text: "长镜头独白"},
		{Index: 3, Start: 300, End: 330, Text: "插话"},
		{Index: 4, Start: 436, End: 466, Text: "收尾"},
	}
	raw := []analysis.RawSegment{
		{CandidateStart: 10, CandidateEnd: 350, Title: "独白", DramaticScore: 8.0},
	}
	config := Config{MinDurationSeconds: 60, MaxDurationSeconds: 500, MinSegments: 1, MaxSegments: 5}

	plan, err := config.Plan(raw, lines)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(plan.Segments))
	}
	segment := plan.Segments[0]
	if segment.EndIndex != 2 || segment.EndTime != 400 {
		t.Fatalf("end snapped to line %d (%.1f), want line 2 ending at 400", segment.EndIndex, segment.EndTime)
	}
}

func TestPlanRequiresLines(t *testing.T) {
	if _, err := defaultConfig().Plan(nil, nil); err == nil {
		t.Fatal("expected error with no dialogue lines")
	}
}
