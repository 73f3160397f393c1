package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"storyclip/internal/subtitle"
)

// ErrUnavailable marks an analysis attempt that produced nothing usable:
// transport failure, timeout, or a reply with zero parsable segments.
// Callers fall back to rule-based scoring.
var ErrUnavailable = errors.New("analysis unavailable")

// Quote is a notable dialogue excerpt inside a segment.
type Quote struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// RawSegment is a candidate highlight span as suggested by the analyzer,
// before boundary snapping.
type RawSegment struct {
	CandidateStart   float64 `json:"candidate_start"`
	CandidateEnd     float64 `json:"candidate_end"`
	Title            string  `json:"title"`
	DramaticScore    float64 `json:"dramatic_score"`
	NarrationOutline string  `json:"narration_outline"`
	KeyQuotes        []Quote `json:"key_quotes,omitempty"`
	// LowConfidence marks segments produced by the rule-based fallback.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// SeriesNotes carries cross-episode continuity observations.
type SeriesNotes struct {
	PreviousConnection string   `json:"previous_connection,omitempty"`
	NextSetup          string   `json:"next_setup,omitempty"`
	Storylines         []string `json:"storylines,omitempty"`
}

// Outcome is what a single analyzer invocation yields.
type Outcome struct {
	GenreGuess  string
	Segments    []RawSegment
	SeriesNotes SeriesNotes
}

// Result is the persisted, immutable analysis record for one fingerprint.
type Result struct {
	Fingerprint string       `json:"fingerprint"`
	EpisodeID   string       `json:"episode_id"`
	GenreGuess  string       `json:"genre_guess"`
	Segments    []RawSegment `json:"segments"`
	SeriesNotes SeriesNotes  `json:"series_notes"`
	GeneratedAt time.Time    `json:"generated_at"`
	// Source records which capability produced the result: "llm" or "fallback".
	Source string `json:"source"`
}

// Request is the single round-trip payload sent to an analyzer. Lines carry
// the parsed dialogue for rule-based analyzers; TextBlock is the exact
// serialization LLM analyzers see.
type Request struct {
	EpisodeID      string
	TextBlock      string
	Lines          []subtitle.Line
	SeriesPosition int
	ContinuityHint string
}

// Analyzer is the pluggable content-understanding capability.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Outcome, error)
}

// Params identifies the analysis configuration that affects output, and is
// folded into the fingerprint so a model change invalidates nothing silently.
type Params struct {
	Provider string
	Model    string
}

func (p Params) String() string {
	return fmt.Sprintf("provider=%s;model=%s", p.Provider, p.Model)
}

// Fingerprint computes the cache key for an episode: the SHA-256 digest of
// the raw text block and the analysis parameters, NUL-separated. Identical
// serialized text and parameters always map to the same fingerprint.
func Fingerprint(rawTextBlock string, params Params) string {
	hasher := sha256.New()
	hasher.Write([]byte(rawTextBlock))
	hasher.Write([]byte{0})
	hasher.Write([]byte(params.String()))
	return hex.EncodeToString(hasher.Sum(nil))
}
