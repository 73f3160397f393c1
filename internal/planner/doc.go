// Package planner turns raw analysis-suggested time ranges into the final
// ordered set of highlight segments. It snaps candidate ranges onto dialogue
// line boundaries so no sentence is ever cut mid-span, enforces duration
// bounds, resolves overlaps, and applies a fixed score threshold ladder to
// reach the configured segment count. Planning is pure: identical inputs
// always yield identical output.
package planner
