package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Episode and segment status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store records run state backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the run-state database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// EpisodeRecord is one episode's outcome within a run.
type EpisodeRecord struct {
	RunID           string
	EpisodeID       string
	SourceSubtitle  string
	SourceVideo     string
	Fingerprint     string
	AnalysisSource  string
	AnalysisCached  bool
	SegmentsPlanned int
	Shortfall       bool
	Status          string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SegmentRecord is one segment's outcome within an episode.
type SegmentRecord struct {
	RunID         string
	EpisodeID     string
	SegmentID     int
	Title         string
	StartSeconds  float64
	EndSeconds    float64
	Score         float64
	VideoPath     string
	NarrationPath string
	Signature     string
	Reused        bool
	Status        string
	ErrorMessage  string
	CreatedAt     time.Time
}

// RecordEpisode upserts an episode outcome.
func (s *Store) RecordEpisode(ctx context.Context, rec EpisodeRecord) error {
	if rec.RunID == "" || rec.EpisodeID == "" {
		return errors.New("record episode: run id and episode id required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO episodes (
			run_id, episode_id, source_subtitle, source_video, fingerprint,
			analysis_source, analysis_cached, segments_planned, shortfall,
			status, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, episode_id) DO UPDATE SET
			source_subtitle = excluded.source_subtitle,
			source_video = excluded.source_video,
			fingerprint = excluded.fingerprint,
			analysis_source = excluded.analysis_source,
			analysis_cached = excluded.analysis_cached,
			segments_planned = excluded.segments_planned,
			shortfall = excluded.shortfall,
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at`,
		rec.RunID, rec.EpisodeID, rec.SourceSubtitle, rec.SourceVideo, rec.Fingerprint,
		rec.AnalysisSource, boolInt(rec.AnalysisCached), rec.SegmentsPlanned, boolInt(rec.Shortfall),
		rec.Status, rec.ErrorMessage, now, now,
	)
}

// RecordSegment upserts a segment outcome.
func (s *Store) RecordSegment(ctx context.Context, rec SegmentRecord) error {
	if rec.RunID == "" || rec.EpisodeID == "" {
		return errors.New("record segment: run id and episode id required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO segments (
			run_id, episode_id, segment_id, title, start_seconds, end_seconds,
			score, video_path, narration_path, signature, reused, status,
			error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, episode_id, segment_id) DO UPDATE SET
			title = excluded.title,
			start_seconds = excluded.start_seconds,
			end_seconds = excluded.end_seconds,
			score = excluded.score,
			video_path = excluded.video_path,
			narration_path = excluded.narration_path,
			signature = excluded.signature,
			reused = excluded.reused,
			status = excluded.status,
			error_message = excluded.error_message`,
		rec.RunID, rec.EpisodeID, rec.SegmentID, rec.Title, rec.StartSeconds, rec.EndSeconds,
		rec.Score, rec.VideoPath, rec.NarrationPath, rec.Signature, boolInt(rec.Reused), rec.Status,
		rec.ErrorMessage, now,
	)
}

// EpisodesForRun returns a run's episode records ordered by episode id.
func (s *Store) EpisodesForRun(ctx context.Context, runID string) ([]EpisodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, episode_id, source_subtitle, source_video, fingerprint,
			analysis_source, analysis_cached, segments_planned, shortfall,
			status, error_message, created_at, updated_at
		FROM episodes WHERE run_id = ? ORDER BY episode_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []EpisodeRecord
	for rows.Next() {
		var (
			rec                  EpisodeRecord
			cached, shortfall    int
			createdAt, updatedAt string
		)
		if err := rows.Scan(
			&rec.RunID, &rec.EpisodeID, &rec.SourceSubtitle, &rec.SourceVideo, &rec.Fingerprint,
			&rec.AnalysisSource, &cached, &rec.SegmentsPlanned, &shortfall,
			&rec.Status, &rec.ErrorMessage, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		rec.AnalysisCached = cached != 0
		rec.Shortfall = shortfall != 0
		rec.CreatedAt = parseTime(createdAt)
		rec.UpdatedAt = parseTime(updatedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SegmentsForEpisode returns an episode's segment records ordered by id.
func (s *Store) SegmentsForEpisode(ctx context.Context, runID, episodeID string) ([]SegmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, episode_id, segment_id, title, start_seconds, end_seconds,
			score, video_path, narration_path, signature, reused, status,
			error_message, created_at
		FROM segments WHERE run_id = ? AND episode_id = ? ORDER BY segment_id`, runID, episodeID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []SegmentRecord
	for rows.Next() {
		var (
			rec       SegmentRecord
			reused    int
			createdAt string
		)
		if err := rows.Scan(
			&rec.RunID, &rec.EpisodeID, &rec.SegmentID, &rec.Title, &rec.StartSeconds, &rec.EndSeconds,
			&rec.Score, &rec.VideoPath, &rec.NarrationPath, &rec.Signature, &reused, &rec.Status,
			&rec.ErrorMessage, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		rec.Reused = reused != 0
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RunSummary aggregates the counters a run report needs.
type RunSummary struct {
	RunID            string
	Episodes         int
	FailedEpisodes   int
	Shortfalls       int
	NewAnalysisCalls int
	CachedAnalysis   int
	Segments         int
	FailedSegments   int
	NewEncodes       int
	ReusedClips      int
}

// Summarize computes the aggregate counters for one run.
func (s *Store) Summarize(ctx context.Context, runID string) (RunSummary, error) {
	summary := RunSummary{RunID: runID}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(shortfall), 0),
			COALESCE(SUM(CASE WHEN analysis_cached = 0 AND status != ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(analysis_cached), 0)
		FROM episodes WHERE run_id = ?`,
		StatusFailed, StatusFailed, runID,
	).Scan(&summary.Episodes, &summary.FailedEpisodes, &summary.Shortfalls,
		&summary.NewAnalysisCalls, &summary.CachedAnalysis)
	if err != nil {
		return summary, fmt.Errorf("summarize episodes: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reused = 0 AND status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(reused), 0)
		FROM segments WHERE run_id = ?`,
		StatusFailed, StatusCompleted, runID,
	).Scan(&summary.Segments, &summary.FailedSegments, &summary.NewEncodes, &summary.ReusedClips)
	if err != nil {
		return summary, fmt.Errorf("summarize segments: %w", err)
	}
	return summary, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
