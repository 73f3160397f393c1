package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyclip/internal/fileutil"
	"storyclip/internal/store"
	"storyclip/internal/subtitle"
	"storyclip/internal/textutil"
)

// Writer persists run reports under a fixed directory.
type Writer struct {
	dir string
}

// NewWriter creates the report directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WriteEpisodeSummary writes one episode's summary file and returns its path.
func (w *Writer) WriteEpisodeSummary(episode store.EpisodeRecord, segments []store.SegmentRecord) (string, error) {
	path := filepath.Join(w.dir, textutil.SanitizeToken(episode.EpisodeID)+"_summary.txt")
	if err := fileutil.WriteFileAtomic(path, []byte(RenderEpisodeSummary(episode, segments)), 0o644); err != nil {
		return "", fmt.Errorf("write episode summary: %w", err)
	}
	return path, nil
}

// WriteRunReport writes the aggregate report for a run and returns its path.
func (w *Writer) WriteRunReport(summary store.RunSummary, episodes []store.EpisodeRecord, startedAt time.Time) (string, error) {
	path := filepath.Join(w.dir, "run_"+textutil.SanitizeToken(summary.RunID)+".txt")
	if err := fileutil.WriteFileAtomic(path, []byte(RenderRunReport(summary, episodes, startedAt)), 0o644); err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}
	return path, nil
}

// RenderEpisodeSummary produces the fixed-template episode summary.
func RenderEpisodeSummary(episode store.EpisodeRecord, segments []store.SegmentRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "剧集: %s\n", episode.EpisodeID)
	fmt.Fprintf(&b, "字幕文件: %s\n", episode.SourceSubtitle)
	if episode.SourceVideo != "" {
		fmt.Fprintf(&b, "视频文件: %s\n", episode.SourceVideo)
	}
	fmt.Fprintf(&b, "指纹: %s\n", episode.Fingerprint)
	fmt.Fprintf(&b, "分析来源: %s\n", analysisLabel(episode))
	if episode.Status == store.StatusFailed {
		fmt.Fprintf(&b, "状态: 失败 (%s)\n", episode.ErrorMessage)
		return b.String()
	}
	fmt.Fprintf(&b, "状态: 完成\n")
	if episode.Shortfall {
		fmt.Fprintf(&b, "提示: 片段数量不足计划下限\n")
	}
	fmt.Fprintf(&b, "片段数: %d\n", len(segments))
	for _, segment := range segments {
		fmt.Fprintf(&b, "\n[%02d] %s\n", segment.SegmentID, segment.Title)
		fmt.Fprintf(&b, "  时间: %s --> %s (%.1f秒)\n",
			subtitle.FormatTimestamp(segment.StartSeconds),
			subtitle.FormatTimestamp(segment.EndSeconds),
			segment.EndSeconds-segment.StartSeconds,
		)
		fmt.Fprintf(&b, "  评分: %.1f\n", segment.Score)
		switch {
		case segment.Status == store.StatusFailed:
			fmt.Fprintf(&b, "  结果: 剪辑失败 (%s)\n", segment.ErrorMessage)
		case segment.Reused:
			fmt.Fprintf(&b, "  结果: 复用已有片段 %s\n", segment.VideoPath)
		default:
			fmt.Fprintf(&b, "  结果: 新剪辑 %s\n", segment.VideoPath)
		}
	}
	return b.String()
}

// RenderRunReport produces the aggregate run report.
func RenderRunReport(summary store.RunSummary, episodes []store.EpisodeRecord, startedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "运行批次: %s\n", summary.RunID)
	fmt.Fprintf(&b, "开始时间: %s\n", startedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "剧集总数: %d (失败 %d)\n", summary.Episodes, summary.FailedEpisodes)
	fmt.Fprintf(&b, "新分析调用: %d\n", summary.NewAnalysisCalls)
	fmt.Fprintf(&b, "缓存命中: %d\n", summary.CachedAnalysis)
	fmt.Fprintf(&b, "片段总数: %d (失败 %d)\n", summary.Segments, summary.FailedSegments)
	fmt.Fprintf(&b, "新剪辑: %d\n", summary.NewEncodes)
	fmt.Fprintf(&b, "复用片段: %d\n", summary.ReusedClips)
	if summary.Shortfalls > 0 {
		fmt.Fprintf(&b, "片段数不足的剧集: %d\n", summary.Shortfalls)
	}
	b.WriteString("\n")
	for _, episode := range episodes {
		status := "完成"
		if episode.Status == store.StatusFailed {
			status = "失败: " + episode.ErrorMessage
		} else if episode.Shortfall {
			status = "完成(片段不足)"
		}
		fmt.Fprintf(&b, "  %s  片段 %d  分析 %s  %s\n",
			episode.EpisodeID, episode.SegmentsPlanned, analysisLabel(episode), status)
	}
	return b.String()
}

func analysisLabel(episode store.EpisodeRecord) string {
	source := episode.AnalysisSource
	if source == "" {
		source = "-"
	}
	if episode.AnalysisCached {
		return source + "(缓存)"
	}
	return source
}
