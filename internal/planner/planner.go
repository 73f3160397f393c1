package planner

import (
	"errors"
	"fmt"
	"sort"

	"storyclip/internal/analysis"
	"storyclip/internal/subtitle"
)

// ErrShortfall reports that fewer segments than the configured minimum
// survived planning. The plan that accompanies it is still usable.
var ErrShortfall = errors.New("planning shortfall")

// thresholdLadder is the fixed sequence of minimum scores tried when too few
// segments survive. The same ladder runs on every invocation.
var thresholdLadder = []float64{8.0, 6.0, 4.0, 2.0, 0.0}

// Config bounds segment duration and count.
type Config struct {
	MinDurationSeconds float64
	MaxDurationSeconds float64
	MinSegments        int
	MaxSegments        int
}

// Segment is a finalized highlight span aligned to dialogue line boundaries.
type Segment struct {
	ID            int
	StartIndex    int
	EndIndex      int
	StartTime     float64
	EndTime       float64
	Title         string
	DramaticScore float64
	Narration     string
	Quotes        []analysis.Quote
	LowConfidence bool
}

// Duration returns the segment span in seconds.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Plan is the planner's output for one episode.
type Plan struct {
	Segments  []Segment
	Threshold float64
	// Shortfall is set when fewer than the configured minimum survive even
	// at the bottom of the threshold ladder.
	Shortfall bool
	Warnings  []string
}

// Plan snaps raw segments to line boundaries, enforces duration and count
// bounds, and resolves overlaps. The function is pure and deterministic.
func (c Config) Plan(raw []analysis.RawSegment, lines []subtitle.Line) (Plan, error) {
	if len(lines) == 0 {
		return Plan{}, errors.New("plan: no dialogue lines")
	}

	var plan Plan
	candidates := make([]Segment, 0, len(raw))
	for _, segment := range raw {
		snapped, ok, reason := c.snap(segment, lines)
		if !ok {
			plan.Warnings = append(plan.Warnings, reason)
			continue
		}
		candidates = append(candidates, snapped)
	}

	var selected []Segment
	for _, threshold := range thresholdLadder {
		eligible := make([]Segment, 0, len(candidates))
		for _, candidate := range candidates {
			if candidate.DramaticScore >= threshold {
				eligible = append(eligible, candidate)
			}
		}
		selected = c.resolveOverlaps(eligible, lines)
		plan.Threshold = threshold
		if len(selected) >= c.MinSegments {
			break
		}
	}

	if len(selected) > c.MaxSegments && c.MaxSegments > 0 {
		selected = topByScore(selected, c.MaxSegments)
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].StartIndex < selected[j].StartIndex
	})
	for i := range selected {
		selected[i].ID = i + 1
	}
	plan.Segments = selected

	if len(selected) < c.MinSegments {
		plan.Shortfall = true
		return plan, fmt.Errorf("%w: %d segments survived, minimum is %d", ErrShortfall, len(selected), c.MinSegments)
	}
	return plan, nil
}

// snap aligns a raw time range onto dialogue line boundaries, then enforces
// the duration bounds by extending or trimming the end boundary.
func (c Config) snap(raw analysis.RawSegment, lines []subtitle.Line) (Segment, bool, string) {
	if raw.CandidateEnd <= raw.CandidateStart {
		return Segment{}, false, fmt.Sprintf("segment %q: inverted range %.3f..%.3f", raw.Title, raw.CandidateStart, raw.CandidateEnd)
	}

	// Closest line start at or before the candidate start.
	startIdx := 0
	for i, line := range lines {
		if line.Start <= raw.CandidateStart {
			startIdx = i
		} else {
			break
		}
	}
	// Closest line end at or after the candidate end. Line End times are not
	// guaranteed monotone, so take the first index that reaches the candidate.
	endIdx := len(lines) - 1
	for i, line := range lines {
		if line.End >= raw.CandidateEnd {
			endIdx = i
			break
		}
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}

	// Extend forward until the minimum duration is met or input runs out.
	for lines[endIdx].End-lines[startIdx].Start < c.MinDurationSeconds && endIdx < len(lines)-1 {
		endIdx++
	}
	// Trim back to the last line that keeps the span within the maximum.
	for endIdx > startIdx && lines[endIdx].End-lines[startIdx].Start > c.MaxDurationSeconds {
		endIdx--
	}

	duration := lines[endIdx].End - lines[startIdx].Start
	if duration < c.MinDurationSeconds || duration > c.MaxDurationSeconds {
		return Segment{}, false, fmt.Sprintf("segment %q: no boundary satisfies duration bounds (best %.1fs)", raw.Title, duration)
	}

	return Segment{
		StartIndex:    lines[startIdx].Index,
		EndIndex:      lines[endIdx].Index,
		StartTime:     lines[startIdx].Start,
		EndTime:       lines[endIdx].End,
		Title:         raw.Title,
		DramaticScore: raw.DramaticScore,
		Narration:     raw.NarrationOutline,
		Quotes:        quotesWithin(raw.KeyQuotes, lines[startIdx].Start, lines[endIdx].End),
		LowConfidence: raw.LowConfidence,
	}, true, ""
}

// resolveOverlaps keeps higher-scored segments intact and truncates the
// overlapping portion of lower-scored ones, dropping them when truncation
// leaves them under the minimum duration. Ties go to the earlier start.
func (c Config) resolveOverlaps(segments []Segment, lines []subtitle.Line) []Segment {
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].DramaticScore != ordered[j].DramaticScore {
			return ordered[i].DramaticScore > ordered[j].DramaticScore
		}
		if ordered[i].StartIndex != ordered[j].StartIndex {
			return ordered[i].StartIndex < ordered[j].StartIndex
		}
		return ordered[i].EndIndex < ordered[j].EndIndex
	})

	var kept []Segment
	for _, candidate := range ordered {
		trimmed, ok := c.trimAgainst(candidate, kept, lines)
		if ok {
			kept = append(kept, trimmed)
		}
	}
	return kept
}

// trimAgainst cuts candidate back so it no longer overlaps any kept segment.
func (c Config) trimAgainst(candidate Segment, kept []Segment, lines []subtitle.Line) (Segment, bool) {
	start, end := candidate.StartIndex, candidate.EndIndex
	for _, winner := range kept {
		if end < winner.StartIndex || start > winner.EndIndex {
			continue
		}
		// Overlap: keep the part of the candidate outside the winner,
		// preferring the tail after the winner when both sides remain.
		if candidate.StartIndex < winner.StartIndex && candidate.EndIndex > winner.EndIndex {
			end = winner.StartIndex - 1
		} else if end > winner.EndIndex {
			start = winner.EndIndex + 1
		} else if start < winner.StartIndex {
			end = winner.StartIndex - 1
		} else {
			return Segment{}, false
		}
		if end < start {
			return Segment{}, false
		}
	}
	if start == candidate.StartIndex && end == candidate.EndIndex {
		return candidate, true
	}

	startLine, okStart := lineByIndex(lines, start)
	endLine, okEnd := lineByIndex(lines, end)
	if !okStart || !okEnd {
		return Segment{}, false
	}
	candidate.StartIndex = start
	candidate.EndIndex = end
	candidate.StartTime = startLine.Start
	candidate.EndTime = endLine.End
	candidate.Quotes = quotesWithin(candidate.Quotes, candidate.StartTime, candidate.EndTime)
	if candidate.Duration() < c.MinDurationSeconds {
		return Segment{}, false
	}
	return candidate, true
}

func topByScore(segments []Segment, limit int) []Segment {
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].DramaticScore != ordered[j].DramaticScore {
			return ordered[i].DramaticScore > ordered[j].DramaticScore
		}
		return ordered[i].StartIndex < ordered[j].StartIndex
	})
	return ordered[:limit]
}

func lineByIndex(lines []subtitle.Line, index int) (subtitle.Line, bool) {
	for _, line := range lines {
		if line.Index == index {
			return line, true
		}
	}
	return subtitle.Line{}, false
}

func quotesWithin(quotes []analysis.Quote, start, end float64) []analysis.Quote {
	var inside []analysis.Quote
	for _, quote := range quotes {
		if quote.Start >= start && quote.End <= end {
			inside = append(inside, quote)
		}
	}
	return inside
}
