// Package textutil provides text processing utilities for fingerprinting,
// similarity, and filename sanitization.
//
// The primary use cases are:
//   - Creating token-based fingerprints from narration text for comparison
//   - Computing cosine similarity between fingerprints
//   - Sanitizing episode titles and path segments for safe filesystem use
//
// Tokenization is CJK-aware: runs of Latin letters and digits become lowercase
// word tokens, while CJK text is split into character bigrams so that dialogue
// and narration in Chinese compare meaningfully.
package textutil
