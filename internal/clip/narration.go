package clip

import (
	"fmt"
	"strings"

	"storyclip/internal/subtitle"
)

// RenderNarration produces the narration sidecar for a segment using a fixed
// template, so re-rendering unchanged input is byte-identical.
func RenderNarration(req Request) string {
	segment := req.Segment
	var b strings.Builder

	fmt.Fprintf(&b, "片段标题: %s\n", segment.Title)
	fmt.Fprintf(&b, "时间范围: %s --> %s\n",
		subtitle.FormatTimestamp(segment.StartTime),
		subtitle.FormatTimestamp(segment.EndTime),
	)
	fmt.Fprintf(&b, "时长: %.1f秒\n", segment.Duration())
	fmt.Fprintf(&b, "戏剧张力: %.1f/10\n", segment.DramaticScore)
	if segment.LowConfidence {
		b.WriteString("评分来源: 规则回退(低置信度)\n")
	}
	if narration := strings.TrimSpace(segment.Narration); narration != "" {
		fmt.Fprintf(&b, "剧情梗概: %s\n", narration)
	}
	if len(segment.Quotes) > 0 {
		b.WriteString("关键台词:\n")
		for _, quote := range segment.Quotes {
			fmt.Fprintf(&b, "  [%s] %s\n", subtitle.FormatTimestamp(quote.Start), quote.Text)
		}
	}
	if bridge := strings.TrimSpace(req.PreviousBridge); bridge != "" {
		fmt.Fprintf(&b, "衔接上集: %s\n", bridge)
	}
	if setup := strings.TrimSpace(req.NextSetup); setup != "" {
		fmt.Fprintf(&b, "引出下集: %s\n", setup)
	}
	return b.String()
}
