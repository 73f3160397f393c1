// Package subtitle parses SRT subtitle files into ordered dialogue lines.
//
// Parsing is lenient: malformed blocks are skipped with a recorded warning
// rather than failing the episode, and input bytes are decoded with an
// encoding fallback chain (UTF-8, GBK, UTF-16) before parsing. A fixed
// typo-correction table is applied to the raw content first, so corrections
// land before the episode text is fingerprinted downstream.
package subtitle
