package config

const (
	defaultSubtitleDir = "srt"
	defaultVideoDir    = "videos"
	defaultOutputDir   = "clips"
	defaultCacheDir    = "cache"
	defaultReportDir   = "reports"
	defaultLogDir      = "logs"

	defaultLogLevel  = "info"
	defaultLogFormat = "console"

	defaultAnalysisProvider = "openrouter"
	defaultAnalysisBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultAnalysisModel    = "deepseek/deepseek-chat"
	defaultAnalysisTimeout  = 120

	defaultMinDurationSeconds = 120
	defaultMaxDurationSeconds = 180
	defaultMinSegments        = 3
	defaultMaxSegments        = 5

	defaultFallbackWindowLines = 35
	defaultFallbackStepLines   = 15

	defaultFFmpegBinary  = "ffmpeg"
	defaultFFmpegTimeout = 600

	defaultWorkers = 2
)

// Default returns a Config populated with repository defaults. The fallback
// keyword tables carry the rule-based scorer's built-in vocabulary; operators
// override them per series in the config file.
func Default() Config {
	return Config{
		Paths: Paths{
			SubtitleDir: defaultSubtitleDir,
			VideoDir:    defaultVideoDir,
			OutputDir:   defaultOutputDir,
			CacheDir:    defaultCacheDir,
			ReportDir:   defaultReportDir,
			LogDir:      defaultLogDir,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Analysis: Analysis{
			Provider:       defaultAnalysisProvider,
			BaseURL:        defaultAnalysisBaseURL,
			Model:          defaultAnalysisModel,
			TimeoutSeconds: defaultAnalysisTimeout,
		},
		Planner: Planner{
			MinDurationSeconds: defaultMinDurationSeconds,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			MinSegments:        defaultMinSegments,
			MaxSegments:        defaultMaxSegments,
		},
		Fallback: Fallback{
			WindowLines: defaultFallbackWindowLines,
			StepLines:   defaultFallbackStepLines,
			StorylineKeywords: map[string][]string{
				"四二八案":  {"四二八案", "428案", "李慕枫", "申诉", "正当防卫", "段洪山", "重审"},
				"628旧案": {"628旧案", "628案", "旧案", "关联", "真相", "线索"},
				"听证会":   {"听证会", "法庭", "审判", "辩论", "质证", "举证"},
				"张园霸凌":  {"张园", "霸凌", "校园", "学生", "欺凌", "证据"},
				"段洪山父女": {"段洪山", "父女", "亲情", "家庭", "责任"},
			},
			TensionKeywords: []string{
				"反转", "颠覆", "揭露", "发现", "震惊", "意外", "没想到", "原来",
				"证词", "推翻", "质疑", "对抗", "争议", "冲突", "爆发", "崩溃",
			},
			EmotionKeywords: []string{
				"愤怒", "激动", "哭泣", "喊叫", "绝望", "希望", "坚持", "放弃",
				"痛苦", "心痛", "感动", "震撼", "无奈", "委屈", "不甘",
			},
		},
		FFmpeg: FFmpeg{
			Binary:         defaultFFmpegBinary,
			TimeoutSeconds: defaultFFmpegTimeout,
		},
		Workflow: Workflow{
			Workers: defaultWorkers,
		},
	}
}
