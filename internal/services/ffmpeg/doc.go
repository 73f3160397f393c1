// Package ffmpeg wraps the ffmpeg and ffprobe binaries behind a small
// cutting interface so the clip layer never shells out directly and tests
// can substitute a stub.
package ffmpeg
