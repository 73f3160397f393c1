package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storyclip/internal/analysis"
	"storyclip/internal/analysiscache"
	"storyclip/internal/clip"
	"storyclip/internal/config"
	"storyclip/internal/continuity"
	"storyclip/internal/episode"
	"storyclip/internal/logging"
	"storyclip/internal/planner"
	"storyclip/internal/report"
	"storyclip/internal/store"
	"storyclip/internal/subtitle"
)

// Pipeline wires the processing stages together for a run.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	cache    *analysiscache.Manager
	primary  analysis.Analyzer
	fallback analysis.Analyzer
	params   analysis.Params
	planner  planner.Config
	executor *clip.Executor
	store    *store.Store
	reports  *report.Writer
	workers  int
}

// Options collects the pipeline's collaborators.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Cache  *analysiscache.Manager
	// Primary is the external analyzer; nil means fallback-only operation.
	Primary  analysis.Analyzer
	Fallback analysis.Analyzer
	Params   analysis.Params
	Executor *clip.Executor
	Store    *store.Store
	Reports  *report.Writer
}

// New validates the options and builds a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, errors.New("workflow: config required")
	}
	if opts.Cache == nil {
		return nil, errors.New("workflow: cache manager required")
	}
	if opts.Fallback == nil {
		return nil, errors.New("workflow: fallback analyzer required")
	}
	if opts.Executor == nil {
		return nil, errors.New("workflow: clip executor required")
	}
	if opts.Store == nil {
		return nil, errors.New("workflow: store required")
	}
	if opts.Reports == nil {
		return nil, errors.New("workflow: report writer required")
	}
	workers := opts.Config.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		cfg:      opts.Config,
		logger:   logging.NewComponentLogger(opts.Logger, "workflow"),
		cache:    opts.Cache,
		primary:  opts.Primary,
		fallback: opts.Fallback,
		params:   opts.Params,
		planner: planner.Config{
			MinDurationSeconds: opts.Config.Planner.MinDurationSeconds,
			MaxDurationSeconds: opts.Config.Planner.MaxDurationSeconds,
			MinSegments:        opts.Config.Planner.MinSegments,
			MaxSegments:        opts.Config.Planner.MaxSegments,
		},
		executor: opts.Executor,
		store:    opts.Store,
		reports:  opts.Reports,
		workers:  workers,
	}, nil
}

// RunResult is what a completed batch reports.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	Summary    store.RunSummary
	Episodes   []store.EpisodeRecord
	ReportPath string
}

// job is one episode's unit of work, prepared during discovery.
type job struct {
	episodeID       string
	subtitlePath    string
	videoPath       string
	seriesPosition  int
	prevFingerprint string
}

// Run processes every subtitle file in the configured directory. Only a
// fully unreadable input directory or a fatal local I/O error is returned;
// per-episode failures are recorded and reported.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	startedAt := time.Now().UTC()
	runID := uuid.NewString()
	result := RunResult{RunID: runID, StartedAt: startedAt}

	jobs, err := p.discover()
	if err != nil {
		return result, err
	}
	if len(jobs) == 0 {
		return result, fmt.Errorf("no subtitle files found in %s", p.cfg.Paths.SubtitleDir)
	}
	p.logger.Info("run started",
		slog.String("run_id", runID),
		slog.Int("episodes", len(jobs)),
		slog.Int("workers", p.workers),
	)

	queue := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				p.processEpisode(ctx, runID, j)
			}
		}()
	}
	for _, j := range jobs {
		select {
		case queue <- j:
		case <-ctx.Done():
		}
	}
	close(queue)
	wg.Wait()
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	summary, err := p.store.Summarize(ctx, runID)
	if err != nil {
		return result, err
	}
	episodes, err := p.store.EpisodesForRun(ctx, runID)
	if err != nil {
		return result, err
	}
	reportPath, err := p.reports.WriteRunReport(summary, episodes, startedAt)
	if err != nil {
		return result, err
	}

	result.Summary = summary
	result.Episodes = episodes
	result.ReportPath = reportPath
	p.logger.Info("run finished",
		slog.String("run_id", runID),
		slog.Int("new_analysis_calls", summary.NewAnalysisCalls),
		slog.Int("new_encodes", summary.NewEncodes),
		slog.Int("failed_episodes", summary.FailedEpisodes),
	)
	return result, nil
}

// discover lists subtitle files, matches videos, and precomputes the
// previous-episode fingerprint each job needs for continuity lookups.
func (p *Pipeline) discover() ([]job, error) {
	subtitles, err := listFiles(p.cfg.Paths.SubtitleDir, ".srt")
	if err != nil {
		return nil, fmt.Errorf("read subtitle directory: %w", err)
	}
	videos, err := listFiles(p.cfg.Paths.VideoDir, ".mp4", ".mkv", ".ts")
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read video directory: %w", err)
	}

	sort.Slice(subtitles, func(i, j int) bool {
		ni, nj := episode.NumberFromFilename(subtitles[i]), episode.NumberFromFilename(subtitles[j])
		if ni != nj {
			return ni < nj
		}
		return subtitles[i] < subtitles[j]
	})

	jobs := make([]job, 0, len(subtitles))
	var prevFingerprint string
	for position, path := range subtitles {
		j := job{
			episodeID:       episode.IDFromFilename(path),
			subtitlePath:    path,
			videoPath:       episode.MatchVideo(path, videos),
			seriesPosition:  position + 1,
			prevFingerprint: prevFingerprint,
		}
		jobs = append(jobs, j)

		// Fingerprint the episode now so its successor can look up this
		// episode's cached analysis for continuity.
		prevFingerprint = ""
		if content, readErr := subtitle.ReadFile(path); readErr == nil {
			if lines, _, parseErr := subtitle.Parse(content); parseErr == nil {
				epCtx := episode.BuildContext(j.episodeID, lines, j.seriesPosition)
				prevFingerprint = analysis.Fingerprint(epCtx.RawTextBlock, p.params)
			}
		}
	}
	return jobs, nil
}

// processEpisode runs the full stage chain for one episode, recording every
// outcome. It never returns an error: failures land in the store.
func (p *Pipeline) processEpisode(ctx context.Context, runID string, j job) {
	logger := p.logger.With(slog.String(logging.FieldEpisode, j.episodeID))
	record := store.EpisodeRecord{
		RunID:          runID,
		EpisodeID:      j.episodeID,
		SourceSubtitle: j.subtitlePath,
		SourceVideo:    j.videoPath,
		Status:         store.StatusCompleted,
	}
	fail := func(stage string, err error) {
		logger.Error("episode failed", slog.String(logging.FieldStage, stage), logging.Error(err))
		record.Status = store.StatusFailed
		record.ErrorMessage = err.Error()
		if storeErr := p.store.RecordEpisode(ctx, record); storeErr != nil {
			logger.Error("record episode failed", logging.Error(storeErr))
		}
		if _, reportErr := p.reports.WriteEpisodeSummary(record, nil); reportErr != nil {
			logger.Error("write episode summary failed", logging.Error(reportErr))
		}
	}

	content, err := subtitle.ReadFile(j.subtitlePath)
	if err != nil {
		fail("read", err)
		return
	}
	lines, warnings, err := subtitle.Parse(content)
	if err != nil {
		fail("parse", err)
		return
	}
	for _, warning := range warnings {
		logger.Warn("subtitle block skipped",
			slog.Int("block", warning.Block),
			slog.String("reason", warning.Message),
		)
	}

	epCtx := episode.BuildContext(j.episodeID, lines, j.seriesPosition)
	neighbor := p.lookupNeighbor(j.prevFingerprint)
	if neighbor != nil {
		epCtx = epCtx.WithContinuityHint(neighbor.Narration)
	}

	fingerprint := analysis.Fingerprint(epCtx.RawTextBlock, p.params)
	record.Fingerprint = fingerprint

	result, cached, err := p.cache.GetOrCompute(ctx, j.episodeID, fingerprint, func(ctx context.Context) (analysis.Result, error) {
		return p.analyze(ctx, epCtx, logger)
	})
	if err != nil {
		fail("analyze", err)
		return
	}
	record.AnalysisCached = cached
	record.AnalysisSource = result.Source

	plan, err := p.planner.Plan(result.Segments, lines)
	if err != nil && !errors.Is(err, planner.ErrShortfall) {
		fail("plan", err)
		return
	}
	record.Shortfall = plan.Shortfall
	record.SegmentsPlanned = len(plan.Segments)
	if plan.Shortfall {
		logger.Warn("fewer segments than planned minimum",
			slog.Int("planned", len(plan.Segments)),
			slog.Int("minimum", p.planner.MinSegments),
		)
	}
	for _, warning := range plan.Warnings {
		logger.Warn("segment dropped during planning", slog.String("reason", warning))
	}

	links := continuity.Build(plan.Segments, neighbor, result.SeriesNotes)
	segmentRecords := p.materializeAll(ctx, runID, j, plan.Segments, links, logger)

	if err := p.store.RecordEpisode(ctx, record); err != nil {
		logger.Error("record episode failed", logging.Error(err))
	}
	if _, err := p.reports.WriteEpisodeSummary(record, segmentRecords); err != nil {
		logger.Error("write episode summary failed", logging.Error(err))
	}
}

// analyze invokes the primary analyzer and degrades to the rule-based
// fallback when it is unavailable.
func (p *Pipeline) analyze(ctx context.Context, epCtx episode.Context, logger *slog.Logger) (analysis.Result, error) {
	request := analysis.Request{
		EpisodeID:      epCtx.EpisodeID,
		TextBlock:      epCtx.RawTextBlock,
		Lines:          epCtx.Lines,
		SeriesPosition: epCtx.SeriesPosition,
		ContinuityHint: epCtx.ContinuityHint,
	}

	if p.primary != nil {
		outcome, err := p.primary.Analyze(ctx, request)
		if err == nil {
			return resultFrom(epCtx.EpisodeID, outcome, "llm"), nil
		}
		if !errors.Is(err, analysis.ErrUnavailable) {
			return analysis.Result{}, err
		}
		logger.Warn("analysis service unavailable, using rule-based fallback", logging.Error(err))
	}

	outcome, err := p.fallback.Analyze(ctx, request)
	if err != nil {
		return analysis.Result{}, err
	}
	return resultFrom(epCtx.EpisodeID, outcome, "fallback"), nil
}

func (p *Pipeline) materializeAll(ctx context.Context, runID string, j job, segments []planner.Segment, links continuity.Links, logger *slog.Logger) []store.SegmentRecord {
	records := make([]store.SegmentRecord, 0, len(segments))
	for i, segment := range segments {
		request := clip.Request{
			EpisodeID:   j.episodeID,
			Segment:     segment,
			SourceVideo: j.videoPath,
		}
		if i == 0 {
			request.PreviousBridge = links.PreviousBridge
		}
		if i == len(segments)-1 {
			request.NextSetup = links.NextSetup
		}

		rec := store.SegmentRecord{
			RunID:        runID,
			EpisodeID:    j.episodeID,
			SegmentID:    segment.ID,
			Title:        segment.Title,
			StartSeconds: segment.StartTime,
			EndSeconds:   segment.EndTime,
			Score:        segment.DramaticScore,
			Status:       store.StatusCompleted,
		}
		artifact, err := p.executor.Materialize(ctx, request)
		if err != nil {
			logger.Error("segment cut failed",
				slog.Int(logging.FieldSegment, segment.ID),
				logging.Error(err),
			)
			rec.Status = store.StatusFailed
			rec.ErrorMessage = err.Error()
		} else {
			rec.VideoPath = artifact.VideoPath
			rec.NarrationPath = artifact.NarrationPath
			rec.Signature = artifact.ContentSignature
			rec.Reused = artifact.Reused
		}
		if storeErr := p.store.RecordSegment(ctx, rec); storeErr != nil {
			logger.Error("record segment failed", logging.Error(storeErr))
		}
		records = append(records, rec)
	}
	return records
}

// lookupNeighbor fetches the previous episode's cached analysis, if any.
func (p *Pipeline) lookupNeighbor(prevFingerprint string) *continuity.Neighbor {
	if prevFingerprint == "" {
		return nil
	}
	results, err := p.cache.List()
	if err != nil {
		return nil
	}
	for _, result := range results {
		if result.Fingerprint != prevFingerprint {
			continue
		}
		neighbor := &continuity.Neighbor{
			EpisodeID: result.EpisodeID,
			Notes:     result.SeriesNotes,
		}
		if len(result.Segments) > 0 {
			neighbor.Narration = result.Segments[len(result.Segments)-1].NarrationOutline
		}
		return neighbor
	}
	return nil
}

func resultFrom(episodeID string, outcome analysis.Outcome, source string) analysis.Result {
	return analysis.Result{
		EpisodeID:   episodeID,
		GenreGuess:  outcome.GenreGuess,
		Segments:    outcome.Segments,
		SeriesNotes: outcome.SeriesNotes,
		GeneratedAt: time.Now().UTC(),
		Source:      source,
	}
}

func listFiles(dir string, extensions ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range extensions {
			if ext == want {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
