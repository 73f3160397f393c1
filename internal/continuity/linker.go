package continuity

import (
	"fmt"
	"strings"

	"storyclip/internal/analysis"
	"storyclip/internal/planner"
	"storyclip/internal/textutil"
)

// bridgeSimilarityThreshold is the minimum cosine similarity between the
// previous episode's closing narration and a segment's narration for the
// two to be treated as the same story thread.
const bridgeSimilarityThreshold = 0.12

// Neighbor carries what the linker needs from an adjacent episode's cached
// analysis: the narration of its final planned segment and its series notes.
type Neighbor struct {
	EpisodeID string
	Narration string
	Notes     analysis.SeriesNotes
}

// Links holds the annotations to attach to an episode's narration files.
// PreviousBridge goes on the first segment, NextSetup on the last.
type Links struct {
	PreviousBridge string
	NextSetup      string
}

// Build derives continuity annotations for an episode. Either neighbor may
// be nil; missing data simply produces empty annotations.
func Build(segments []planner.Segment, previous *Neighbor, notes analysis.SeriesNotes) Links {
	var links Links
	if len(segments) == 0 {
		return links
	}
	links.PreviousBridge = previousBridge(segments, previous, notes)
	links.NextSetup = strings.TrimSpace(notes.NextSetup)
	return links
}

func previousBridge(segments []planner.Segment, previous *Neighbor, notes analysis.SeriesNotes) string {
	// An explicit connection from the analysis reply wins over the derived one.
	if connection := strings.TrimSpace(notes.PreviousConnection); connection != "" {
		return connection
	}
	if previous == nil || strings.TrimSpace(previous.Narration) == "" {
		return ""
	}

	previousPrint := textutil.NewFingerprint(previous.Narration)
	best := 0.0
	bestTitle := ""
	for _, segment := range segments {
		similarity := textutil.CosineSimilarity(previousPrint, textutil.NewFingerprint(segment.Narration))
		if similarity > best {
			best = similarity
			bestTitle = segment.Title
		}
	}
	if best < bridgeSimilarityThreshold {
		return ""
	}
	return fmt.Sprintf("上集结尾的情节在本集「%s」中继续展开", bestTitle)
}
