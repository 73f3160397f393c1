// Package store persists per-run processing state in SQLite. Every episode
// and segment outcome is recorded so a run can be summarized afterwards and
// a re-run can prove it did no new analysis or encoding work.
package store
