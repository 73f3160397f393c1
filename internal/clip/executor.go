package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"storyclip/internal/fileutil"
	"storyclip/internal/logging"
	"storyclip/internal/planner"
	"storyclip/internal/textutil"
)

// ErrCutting marks a failed cut for one segment. Other segments continue.
var ErrCutting = errors.New("cutting failure")

// Cutter is the external video-cutting capability.
type Cutter interface {
	Cut(ctx context.Context, source string, start, end float64, dest string) error
}

// Request describes one segment to materialize.
type Request struct {
	EpisodeID   string
	Segment     planner.Segment
	SourceVideo string
	// Continuity annotations, empty when no neighboring episode data exists.
	PreviousBridge string
	NextSetup      string
}

// Artifact is the on-disk result of materializing one segment.
type Artifact struct {
	EpisodeID        string
	SegmentID        int
	VideoPath        string
	NarrationPath    string
	ContentSignature string
	// Reused reports that an existing file with a matching signature was
	// kept and no new cut happened.
	Reused bool
}

// Executor cuts segments into the output directory.
type Executor struct {
	outputDir string
	cutter    Cutter
	logger    *slog.Logger
}

// NewExecutor creates the output directory and returns an executor.
func NewExecutor(outputDir string, cutter Cutter, logger *slog.Logger) (*Executor, error) {
	if cutter == nil {
		return nil, errors.New("cutter required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Executor{
		outputDir: outputDir,
		cutter:    cutter,
		logger:    logging.NewComponentLogger(logger, "clip"),
	}, nil
}

// Materialize produces the video and narration files for one segment. When a
// non-empty file with a matching recorded signature already exists, the cut
// is skipped and the existing artifact returned.
func (e *Executor) Materialize(ctx context.Context, req Request) (Artifact, error) {
	segment := req.Segment
	baseName := e.baseName(req.EpisodeID, segment)
	videoPath := filepath.Join(e.outputDir, baseName+".mp4")
	narrationPath := filepath.Join(e.outputDir, baseName+".txt")
	signature := Signature(req.EpisodeID, segment.ID, segment.StartTime, segment.EndTime, segment.Title)

	artifact := Artifact{
		EpisodeID:        req.EpisodeID,
		SegmentID:        segment.ID,
		VideoPath:        videoPath,
		NarrationPath:    narrationPath,
		ContentSignature: signature,
	}

	// The manifest lock guards the signature check and the final commit. The
	// cut itself runs unlocked so segments encode in parallel.
	var reused bool
	err := e.withManifestLock(ctx, func(recorded manifest) error {
		reused = e.upToDate(recorded, videoPath, signature)
		return nil
	})
	if err != nil {
		return artifact, err
	}
	if reused {
		e.logger.Info("clip up to date, skipping cut",
			slog.String(logging.FieldEpisode, req.EpisodeID),
			slog.Int(logging.FieldSegment, segment.ID),
			slog.String("signature", signature),
		)
		if !fileutil.NonEmptyFile(narrationPath) {
			if err := e.writeNarration(narrationPath, req); err != nil {
				return artifact, err
			}
		}
		artifact.Reused = true
		return artifact, nil
	}

	if !fileutil.NonEmptyFile(req.SourceVideo) {
		return artifact, fmt.Errorf("%w: source video %s missing or empty", ErrCutting, req.SourceVideo)
	}

	partial := videoPath + ".partial"
	if err := e.cutter.Cut(ctx, req.SourceVideo, segment.StartTime, segment.EndTime, partial); err != nil {
		_ = os.Remove(partial)
		return artifact, fmt.Errorf("%w: %w", ErrCutting, err)
	}

	// Commit under a fresh lock, re-checking in case a concurrent duplicate
	// run materialized the same signature while we were cutting.
	err = e.withManifestLock(ctx, func(recorded manifest) error {
		if e.upToDate(recorded, videoPath, signature) {
			_ = os.Remove(partial)
			artifact.Reused = true
			return nil
		}
		if err := os.Rename(partial, videoPath); err != nil {
			return fmt.Errorf("%w: finalize clip: %w", ErrCutting, err)
		}
		recorded.Signatures[filepath.Base(videoPath)] = signature
		return recorded.save(e.outputDir)
	})
	if err != nil {
		_ = os.Remove(partial)
		return artifact, err
	}

	if err := e.writeNarration(narrationPath, req); err != nil {
		return artifact, err
	}
	if !artifact.Reused {
		e.logger.Info("clip materialized",
			slog.String(logging.FieldEpisode, req.EpisodeID),
			slog.Int(logging.FieldSegment, segment.ID),
			slog.String("video", videoPath),
		)
	}
	return artifact, nil
}

// withManifestLock runs fn with the loaded manifest while holding the
// advisory lock that serializes manifest access across processes.
func (e *Executor) withManifestLock(ctx context.Context, fn func(manifest) error) error {
	manifestLock := flock.New(filepath.Join(e.outputDir, manifestName+".lock"))
	locked, err := manifestLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire manifest lock: %w", err)
	}
	if !locked {
		return errors.New("acquire manifest lock: not granted")
	}
	defer func() {
		_ = manifestLock.Unlock()
	}()

	recorded, err := loadManifest(e.outputDir)
	if err != nil {
		return err
	}
	return fn(recorded)
}

// upToDate reports whether the existing clip already carries signature.
func (e *Executor) upToDate(recorded manifest, videoPath, signature string) bool {
	return fileutil.NonEmptyFile(videoPath) && recorded.Signatures[filepath.Base(videoPath)] == signature
}

func (e *Executor) baseName(episodeID string, segment planner.Segment) string {
	return fmt.Sprintf("%s_seg%02d_%s",
		textutil.SanitizeToken(episodeID),
		segment.ID,
		textutil.SanitizeToken(segment.Title),
	)
}

func (e *Executor) writeNarration(path string, req Request) error {
	if err := fileutil.WriteFileAtomic(path, []byte(RenderNarration(req)), 0o644); err != nil {
		return fmt.Errorf("write narration file: %w", err)
	}
	return nil
}
