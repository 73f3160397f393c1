package episode

import (
	"fmt"
	"strings"

	"storyclip/internal/subtitle"
)

// Context carries everything the analysis stage needs for one episode.
// Built once per run; Lines and RawTextBlock are treated as immutable.
type Context struct {
	EpisodeID      string
	Lines          []subtitle.Line
	RawTextBlock   string
	SeriesPosition int

	// ContinuityHint summarizes the previous episode's final planned
	// segment. It is fed to the analyzer but excluded from RawTextBlock
	// so the fingerprint does not shift as neighbors change.
	ContinuityHint string
}

// BuildContext assembles the episode context. The serialization template is
// fixed: "index|start --> end|text", one dialogue line per row, inner
// newlines flattened to spaces.
func BuildContext(episodeID string, lines []subtitle.Line, seriesPosition int) Context {
	var b strings.Builder
	for _, line := range lines {
		text := strings.ReplaceAll(line.Text, "\n", " ")
		fmt.Fprintf(&b, "%d|%s --> %s|%s\n",
			line.Index,
			subtitle.FormatTimestamp(line.Start),
			subtitle.FormatTimestamp(line.End),
			text,
		)
	}
	return Context{
		EpisodeID:      episodeID,
		Lines:          lines,
		RawTextBlock:   b.String(),
		SeriesPosition: seriesPosition,
	}
}

// WithContinuityHint returns a copy of the context carrying the hint.
func (c Context) WithContinuityHint(hint string) Context {
	c.ContinuityHint = strings.TrimSpace(hint)
	return c
}

// TotalSpan returns the episode's dialogue time range in seconds.
func (c Context) TotalSpan() (start, end float64) {
	if len(c.Lines) == 0 {
		return 0, 0
	}
	return c.Lines[0].Start, c.Lines[len(c.Lines)-1].End
}
