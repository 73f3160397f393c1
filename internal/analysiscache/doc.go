// Package analysiscache persists analysis results keyed by episode content
// fingerprint.
//
// The store is one JSON record per fingerprint. A cached result is returned
// unchanged forever; deleting the record is the only invalidation path. On a
// miss, GetOrCompute serializes callers per fingerprint — an in-process mutex
// plus an advisory file lock — so concurrent runs make at most one external
// analysis call per fingerprint, with the losers reading the winner's
// persisted result. Unreadable records are treated as misses, never as
// fatal errors.
package analysiscache
