package clip

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Signature derives the content signature that identifies one exact cut.
// Any change to the episode, segment id, boundaries, or title yields a
// different signature, so a stale file on disk is never mistaken for the
// current artifact.
func Signature(episodeID string, segmentID int, start, end float64, title string) string {
	hasher := sha256.New()
	fmt.Fprintf(hasher, "%s|%d|%.3f|%.3f|%s", episodeID, segmentID, start, end, title)
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
