package analysis

import (
	"fmt"
	"strings"

	"storyclip/internal/services/llm"
	"storyclip/internal/subtitle"
)

// Wire types for the analysis service reply. Every field is optional; the
// parser keeps whatever subset is usable.
type replyPayload struct {
	Genre       string            `json:"genre"`
	Segments    []replySegment    `json:"segments"`
	SeriesNotes *replySeriesNotes `json:"series_notes"`
}

type replySegment struct {
	Title         string       `json:"title"`
	StartTime     string       `json:"start_time"`
	EndTime       string       `json:"end_time"`
	DramaticScore float64      `json:"dramatic_score"`
	Narration     string       `json:"narration"`
	Quotes        []replyQuote `json:"quotes"`
}

type replyQuote struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Line      string `json:"line"`
}

type replySeriesNotes struct {
	PreviousConnection string   `json:"previous_connection"`
	NextSetup          string   `json:"next_setup"`
	Storylines         []string `json:"storylines"`
}

// parseReply converts a raw model reply into an Outcome, degrading to the
// parsable subset. Warnings describe what was dropped. An empty segment list
// after filtering is not an error here; the caller decides whether that
// means the analysis is unavailable.
func parseReply(raw string) (Outcome, []string, error) {
	var payload replyPayload
	if err := llm.DecodeLLMJSON(raw, &payload); err != nil {
		return Outcome{}, nil, fmt.Errorf("decode analysis reply: %w", err)
	}

	outcome := Outcome{GenreGuess: strings.TrimSpace(payload.Genre)}
	if payload.SeriesNotes != nil {
		outcome.SeriesNotes = SeriesNotes{
			PreviousConnection: strings.TrimSpace(payload.SeriesNotes.PreviousConnection),
			NextSetup:          strings.TrimSpace(payload.SeriesNotes.NextSetup),
			Storylines:         payload.SeriesNotes.Storylines,
		}
	}

	var warnings []string
	for i, seg := range payload.Segments {
		start, errStart := subtitle.ParseTimestamp(seg.StartTime)
		end, errEnd := subtitle.ParseTimestamp(seg.EndTime)
		if errStart != nil || errEnd != nil {
			warnings = append(warnings, fmt.Sprintf("segment %d: unparsable time range %q..%q", i+1, seg.StartTime, seg.EndTime))
			continue
		}
		if end <= start {
			warnings = append(warnings, fmt.Sprintf("segment %d: end %.3f not after start %.3f", i+1, end, start))
			continue
		}
		score := seg.DramaticScore
		if score < 0 {
			score = 0
		}
		if score > 10 {
			score = 10
		}
		title := strings.TrimSpace(seg.Title)
		if title == "" {
			title = fmt.Sprintf("片段%d", i+1)
		}

		var quotes []Quote
		for _, q := range seg.Quotes {
			qStart, qErr := subtitle.ParseTimestamp(q.StartTime)
			if qErr != nil {
				continue
			}
			qEnd := qStart
			if parsed, err := subtitle.ParseTimestamp(q.EndTime); err == nil {
				qEnd = parsed
			}
			line := strings.TrimSpace(q.Line)
			if line == "" {
				continue
			}
			quotes = append(quotes, Quote{Start: qStart, End: qEnd, Text: line})
		}

		outcome.Segments = append(outcome.Segments, RawSegment{
			CandidateStart:   start,
			CandidateEnd:     end,
			Title:            title,
			DramaticScore:    score,
			NarrationOutline: strings.TrimSpace(seg.Narration),
			KeyQuotes:        quotes,
		})
	}
	return outcome, warnings, nil
}
