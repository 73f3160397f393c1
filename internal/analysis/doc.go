// Package analysis defines the content-understanding contract: the Analyzer
// capability interface, the RawSegment/Result data model, episode
// fingerprinting, and the deterministic rule-based fallback scorer used when
// the external service is unavailable.
package analysis
