// Package report renders the per-episode summary files, the aggregate run
// report, and the console tables the CLI prints after a run.
package report
