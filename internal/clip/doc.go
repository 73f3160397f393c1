// Package clip materializes planned segments as video files and narration
// sidecars. Every artifact carries a content signature derived from the
// exact cut parameters; a file already on disk with a matching recorded
// signature is never re-encoded, which makes repeated runs over unchanged
// input free. Writes go through a .partial rename so readers never observe
// half-written clips.
package clip
