package episode

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)s\d+e(\d+)`),
	regexp.MustCompile(`(?i)ep(\d+)`),
	regexp.MustCompile(`(?i)e(\d+)`),
	regexp.MustCompile(`第(\d+)集`),
	regexp.MustCompile(`(\d+)`),
}

// NumberFromFilename extracts the episode number from a subtitle or video
// filename. Patterns are tried in order of specificity (S01E02, EP02, E02,
// 第2集, then any digit run). Returns 0 when nothing matches.
func NumberFromFilename(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, pattern := range numberPatterns {
		if match := pattern.FindStringSubmatch(base); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// IDFromFilename derives a stable episode identifier from a filename: the
// base name with the extension stripped.
func IDFromFilename(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// MatchVideo finds the video file in candidates whose episode number matches
// the subtitle's. An exact base-name match wins; otherwise numbers decide.
// Returns "" when no candidate matches.
func MatchVideo(subtitleName string, candidates []string) string {
	base := IDFromFilename(subtitleName)
	for _, candidate := range candidates {
		if IDFromFilename(candidate) == base {
			return candidate
		}
	}
	want := NumberFromFilename(subtitleName)
	if want == 0 {
		return ""
	}
	for _, candidate := range candidates {
		if NumberFromFilename(candidate) == want {
			return candidate
		}
	}
	return ""
}
