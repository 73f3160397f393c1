// Package episode assembles per-episode context for analysis.
//
// The context's RawTextBlock is the exact serialization the cache fingerprint
// is computed from: a fixed line template, newline-joined, identical across
// runs and platforms. Continuity hints ride alongside the block but are never
// part of it, so cache keys stay stable while neighboring episodes change.
package episode
