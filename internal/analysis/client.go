package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"storyclip/internal/logging"
)

// JSONCompleter is the single-round-trip contract an LLM transport must
// satisfy. Both the OpenRouter-compatible client and the OpenAI SDK adapter
// implement it.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMAnalyzer implements Analyzer over a JSONCompleter transport.
type LLMAnalyzer struct {
	completer JSONCompleter
	logger    *slog.Logger
}

// NewLLMAnalyzer constructs the LLM-backed analyzer.
func NewLLMAnalyzer(completer JSONCompleter, logger *slog.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		completer: completer,
		logger:    logging.NewComponentLogger(logger, "analysis"),
	}
}

// Analyze sends the episode context in a single request and parses the
// structured reply. Transport failures and replies with zero usable segments
// map to ErrUnavailable so callers can fall back to rule-based scoring.
func (a *LLMAnalyzer) Analyze(ctx context.Context, req Request) (Outcome, error) {
	raw, err := a.completer.CompleteJSON(ctx, systemPrompt, BuildUserPrompt(req))
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	outcome, warnings, err := parseReply(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	for _, warning := range warnings {
		a.logger.Warn("dropped malformed reply segment",
			slog.String(logging.FieldEpisode, req.EpisodeID),
			slog.String("detail", warning),
		)
	}
	if len(outcome.Segments) == 0 {
		return Outcome{}, fmt.Errorf("%w: reply contained no usable segments", ErrUnavailable)
	}
	return outcome, nil
}
