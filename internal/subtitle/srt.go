package subtitle

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrParse marks subtitle content that yielded no usable dialogue lines.
var ErrParse = errors.New("subtitle parse failed")

// Line is a single timed dialogue line. Start and End are seconds from the
// start of the episode. Lines are immutable once parsed.
type Line struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Duration returns the line's span in seconds.
func (l Line) Duration() float64 {
	return l.End - l.Start
}

// Warning records a block that was skipped during parsing.
type Warning struct {
	Block   int
	Message string
}

// backtrackTolerance is how far (seconds) a block's start may precede the
// previous accepted start before the block is treated as out of order.
const backtrackTolerance = 1.0

var timingPattern = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[,.]\d{3})`)

// Parse converts raw SRT content into ordered dialogue lines. The fixed
// typo-correction pass runs on the whole content before block parsing.
// Malformed blocks are skipped and reported via warnings; an input that
// yields zero lines returns ErrParse.
func Parse(content string) ([]Line, []Warning, error) {
	content = CorrectTypos(content)
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var (
		lines    []Line
		warnings []Warning
		lastSeen = math.Inf(-1)
	)

	blocks := strings.Split(strings.TrimSpace(content), "\n\n")
	for blockNum, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		rows := strings.Split(block, "\n")
		if len(rows) < 2 {
			warnings = append(warnings, Warning{Block: blockNum + 1, Message: "incomplete block"})
			continue
		}

		timingRow := 0
		if _, err := strconv.Atoi(strings.TrimSpace(rows[0])); err == nil {
			timingRow = 1
		}
		if timingRow >= len(rows) {
			warnings = append(warnings, Warning{Block: blockNum + 1, Message: "missing timing row"})
			continue
		}

		match := timingPattern.FindStringSubmatch(rows[timingRow])
		if match == nil {
			warnings = append(warnings, Warning{Block: blockNum + 1, Message: fmt.Sprintf("malformed timing %q", rows[timingRow])})
			continue
		}
		start, errStart := ParseTimestamp(match[1])
		end, errEnd := ParseTimestamp(match[2])
		if errStart != nil || errEnd != nil {
			warnings = append(warnings, Warning{Block: blockNum + 1, Message: fmt.Sprintf("malformed timestamp %q", rows[timingRow])})
			continue
		}
		if end < start {
			warnings = append(warnings, Warning{Block: blockNum + 1, Message: fmt.Sprintf("end %.3f before start %.3f", end, start)})
			continue
		}
		if start < lastSeen-backtrackTolerance {
			warnings = append(warnings, Warning{Block: blockNum + 1, Message: fmt.Sprintf("start %.3f out of order", start)})
			continue
		}

		text := strings.TrimSpace(strings.Join(rows[timingRow+1:], "\n"))
		if text == "" {
			warnings = append(warnings, Warning{Block: blockNum + 1, Message: "empty dialogue text"})
			continue
		}

		lastSeen = start
		lines = append(lines, Line{
			Index: len(lines) + 1,
			Start: start,
			End:   end,
			Text:  text,
		})
	}

	if len(lines) == 0 {
		return nil, warnings, fmt.Errorf("%w: no usable dialogue lines", ErrParse)
	}
	return lines, warnings, nil
}

// ParseTimestamp converts an SRT timestamp (HH:MM:SS,mmm) to seconds.
// A period separator is tolerated and normalized to the comma form.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm).
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(math.Round(seconds * 1000))
	h := millis / 3_600_000
	millis -= h * 3_600_000
	m := millis / 60_000
	millis -= m * 60_000
	s := millis / 1000
	millis -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}
