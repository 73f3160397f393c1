package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"storyclip/internal/subtitle"
)

// FallbackOptions configures the rule-based scorer. Keyword tables default
// to the built-in vocabulary when empty.
type FallbackOptions struct {
	WindowLines int
	StepLines   int
	MaxSegments int
	Storylines  map[string][]string
	Tension     []string
	Emotion     []string
}

// FallbackScorer is a deterministic sliding-window analyzer used when the
// external service is unavailable. Identical inputs always produce identical
// outcomes, and scoring never blocks on anything external.
type FallbackScorer struct {
	opts           FallbackOptions
	storylineOrder []string
}

// NewFallbackScorer constructs the scorer. Storyline names are evaluated in
// sorted order so map iteration never influences the result.
func NewFallbackScorer(opts FallbackOptions) *FallbackScorer {
	if opts.WindowLines <= 0 {
		opts.WindowLines = 35
	}
	if opts.StepLines <= 0 {
		opts.StepLines = 15
	}
	if opts.MaxSegments <= 0 {
		opts.MaxSegments = 5
	}
	order := make([]string, 0, len(opts.Storylines))
	for name := range opts.Storylines {
		order = append(order, name)
	}
	sort.Strings(order)
	return &FallbackScorer{opts: opts, storylineOrder: order}
}

type window struct {
	startIdx  int // 0-based offsets into lines
	endIdx    int
	score     float64
	storyline string
}

// Analyze scores sliding windows over the dialogue and returns the top
// non-overlapping windows as low-confidence RawSegments.
func (s *FallbackScorer) Analyze(ctx context.Context, req Request) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	lines := req.Lines
	if len(lines) == 0 {
		return Outcome{}, fmt.Errorf("%w: no dialogue lines for rule-based scoring", ErrUnavailable)
	}

	windows := s.scoreWindows(lines, req.SeriesPosition)
	selected := selectNonOverlapping(windows, s.opts.MaxSegments)

	outcome := Outcome{GenreGuess: "剧情"}
	for _, win := range selected {
		winLines := lines[win.startIdx : win.endIdx+1]
		outcome.Segments = append(outcome.Segments, RawSegment{
			CandidateStart:   winLines[0].Start,
			CandidateEnd:     winLines[len(winLines)-1].End,
			Title:            s.windowTitle(win, req.SeriesPosition),
			DramaticScore:    win.score,
			NarrationOutline: s.windowNarration(win, winLines),
			KeyQuotes:        topQuotes(winLines, s.keywordSet()),
			LowConfidence:    true,
		})
	}
	storylines := make([]string, 0, 2)
	for _, win := range selected {
		if win.storyline != "" && !contains(storylines, win.storyline) {
			storylines = append(storylines, win.storyline)
		}
	}
	outcome.SeriesNotes = SeriesNotes{Storylines: storylines}
	return outcome, nil
}

// scoreWindows slides a window over the lines. The window shrinks for short
// episodes so enough non-overlapping candidates exist to satisfy the
// configured segment count.
func (s *FallbackScorer) scoreWindows(lines []subtitle.Line, seriesPos int) []window {
	size := s.opts.WindowLines
	if adaptive := len(lines) / s.opts.MaxSegments; adaptive < size {
		size = adaptive
	}
	if size < 2 {
		size = 2
	}
	if size > len(lines) {
		size = len(lines)
	}
	step := s.opts.StepLines
	if step > size/2 && size/2 > 0 {
		step = size / 2
	}
	if step < 1 {
		step = 1
	}

	var windows []window
	for i := 0; i+size <= len(lines); i += step {
		text := joinText(lines[i : i+size])
		position := float64(i) / float64(len(lines))
		score, storyline := s.scoreText(text, position)
		windows = append(windows, window{
			startIdx:  i,
			endIdx:    i + size - 1,
			score:     score,
			storyline: storyline,
		})
	}
	return windows
}

// scoreText applies the keyword/weight tables: storyline hits weigh 5,
// dramatic tension 3, emotional peaks 2, then punctuation intensity, a
// positional multiplier, and a text-length quality adjustment. The raw sum
// is mapped into [0,10].
func (s *FallbackScorer) scoreText(text string, position float64) (float64, string) {
	var raw float64
	var storyline string
	var bestStorylineScore float64

	for _, name := range s.storylineOrder {
		var hit float64
		for _, keyword := range s.opts.Storylines[name] {
			if strings.Contains(text, keyword) {
				hit += 5.0
			}
		}
		if hit > bestStorylineScore {
			bestStorylineScore = hit
			storyline = name
		}
	}
	raw += bestStorylineScore

	for _, keyword := range s.opts.Tension {
		if strings.Contains(text, keyword) {
			raw += 3.0
		}
	}
	for _, keyword := range s.opts.Emotion {
		if strings.Contains(text, keyword) {
			raw += 2.0
		}
	}

	raw += float64(strings.Count(text, "！")) * 1.0
	raw += float64(strings.Count(text, "？")) * 0.8
	raw += float64(strings.Count(text, "...")) * 0.5

	switch {
	case position >= 0.3 && position <= 0.7:
		raw *= 1.2
	case position < 0.2 || position > 0.8:
		raw *= 1.1
	}

	runeLen := len([]rune(text))
	switch {
	case runeLen >= 20 && runeLen <= 150:
		raw += 1.5
	case runeLen > 200:
		raw *= 0.8
	}

	score := raw / 5.0
	if score > 10 {
		score = 10
	}
	return score, storyline
}

func (s *FallbackScorer) windowTitle(win window, seriesPos int) string {
	name := win.storyline
	if name == "" {
		name = "剧情推进"
	}
	return fmt.Sprintf("第%d集 %s", seriesPos, name)
}

func (s *FallbackScorer) windowNarration(win window, lines []subtitle.Line) string {
	name := win.storyline
	if name == "" {
		name = "本集剧情"
	}
	return fmt.Sprintf("本段围绕「%s」展开，从「%s」推进到「%s」。",
		name,
		firstSentence(lines[0].Text),
		firstSentence(lines[len(lines)-1].Text),
	)
}

func (s *FallbackScorer) keywordSet() []string {
	var all []string
	for _, name := range s.storylineOrder {
		all = append(all, s.opts.Storylines[name]...)
	}
	all = append(all, s.opts.Tension...)
	all = append(all, s.opts.Emotion...)
	return all
}

// selectNonOverlapping keeps the highest-scoring windows whose line ranges do
// not intersect, ties broken by earlier start, then reorders by start.
func selectNonOverlapping(windows []window, limit int) []window {
	ranked := make([]window, len(windows))
	copy(ranked, windows)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].startIdx < ranked[j].startIdx
	})

	var selected []window
	for _, candidate := range ranked {
		if len(selected) >= limit {
			break
		}
		overlaps := false
		for _, kept := range selected {
			if candidate.startIdx <= kept.endIdx && kept.startIdx <= candidate.endIdx {
				overlaps = true
				break
			}
		}
		if !overlaps {
			selected = append(selected, candidate)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].startIdx < selected[j].startIdx })
	return selected
}

// topQuotes picks the two most keyword-dense lines of a window.
func topQuotes(lines []subtitle.Line, keywords []string) []Quote {
	type scored struct {
		line  subtitle.Line
		score float64
	}
	ranked := make([]scored, 0, len(lines))
	for _, line := range lines {
		var score float64
		for _, keyword := range keywords {
			if strings.Contains(line.Text, keyword) {
				score += 1.0
			}
		}
		score += float64(strings.Count(line.Text, "！")) * 0.5
		ranked = append(ranked, scored{line: line, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].line.Index < ranked[j].line.Index
	})

	count := 2
	if count > len(ranked) {
		count = len(ranked)
	}
	quotes := make([]Quote, 0, count)
	for _, entry := range ranked[:count] {
		quotes = append(quotes, Quote{
			Start: entry.line.Start,
			End:   entry.line.End,
			Text:  strings.ReplaceAll(entry.line.Text, "\n", " "),
		})
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Start < quotes[j].Start })
	return quotes
}

func joinText(lines []subtitle.Line) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = line.Text
	}
	return strings.Join(parts, " ")
}

func firstSentence(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	const limit = 18
	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
