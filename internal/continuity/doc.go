// Package continuity links highlight segments across neighboring episodes.
// It compares the closing narration of the previous episode against the
// current episode's segments and produces short "bridges from previous" and
// "sets up next" annotations for the narration files. Missing neighbor data
// degrades to no annotation, never an error.
package continuity
