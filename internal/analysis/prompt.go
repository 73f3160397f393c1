package analysis

import (
	"fmt"
	"strings"
)

// systemPrompt pins the reply to the structured contract parseReply expects.
const systemPrompt = `你是电视剧剧情分析专家。你必须只输出一个JSON对象，不要输出任何其他文字。
JSON结构如下：
{
  "genre": "剧情类型",
  "segments": [
    {
      "title": "片段标题",
      "start_time": "HH:MM:SS,mmm",
      "end_time": "HH:MM:SS,mmm",
      "dramatic_score": 0.0,
      "narration": "旁白解说词",
      "quotes": [
        {"start_time": "HH:MM:SS,mmm", "end_time": "HH:MM:SS,mmm", "line": "关键台词"}
      ]
    }
  ],
  "series_notes": {
    "previous_connection": "与前集的联系",
    "next_setup": "为后续埋下的伏笔",
    "storylines": ["持续的故事线"]
  }
}
dramatic_score 取值0到10。请选出3到5个最具戏剧张力的片段，每个片段约2到3分钟。`

// BuildUserPrompt renders the per-episode analysis request.
func BuildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "【当前集数】第%d集（%s）\n\n", req.SeriesPosition, req.EpisodeID)
	if req.ContinuityHint != "" {
		fmt.Fprintf(&b, "【前集上下文】\n%s\n\n", req.ContinuityHint)
	} else {
		b.WriteString("【前集上下文】这是剧集分析的开始，暂无前集上下文。\n\n")
	}
	b.WriteString("【完整台词，格式为 行号|开始 --> 结束|台词】\n")
	b.WriteString(req.TextBlock)
	return b.String()
}
