package subtitle

import "strings"

// typoCorrections maps common transcription errors (traditional variants and
// OCR confusions seen in scraped subtitles) to their corrected forms. The
// table is fixed so the pass is deterministic and safe to run before
// fingerprinting.
var typoCorrections = map[string]string{
	"防衛":  "防卫",
	"正當":  "正当",
	"証據":  "证据",
	"檢察官": "检察官",
	"發現":  "发现",
	"審判":  "审判",
	"辯護":  "辩护",
	"調查":  "调查",
	"聽證會": "听证会",
	"起訴":  "起诉",
	"証明":  "证明",
	"関係":  "关系",
}

var typoReplacer = func() *strings.Replacer {
	// Longer keys first so 聽證會 wins over any shorter overlap.
	pairs := make([]string, 0, len(typoCorrections)*2)
	for _, key := range []string{"聽證會", "檢察官", "防衛", "正當", "証據", "發現", "審判", "辯護", "調查", "起訴", "証明", "関係"} {
		pairs = append(pairs, key, typoCorrections[key])
	}
	return strings.NewReplacer(pairs...)
}()

// CorrectTypos applies the fixed correction table to content. Same input
// always yields the same output.
func CorrectTypos(content string) string {
	return typoReplacer.Replace(content)
}
