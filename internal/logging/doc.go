// Package logging centralizes slog construction for storyclip.
//
// Two handler formats are supported: a human-oriented console handler with
// optional ANSI color (enabled only when writing to a terminal) and a JSON
// handler for machine consumption. Components obtain scoped loggers through
// NewComponentLogger so every record carries a stable "component" attribute.
package logging
