package analysiscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"storyclip/internal/analysis"
	"storyclip/internal/fileutil"
	"storyclip/internal/logging"
	"storyclip/internal/textutil"
)

// ErrCorrupt marks a cache record that exists but cannot be decoded. It is
// surfaced only in logs; callers observe a plain miss.
var ErrCorrupt = errors.New("cache entry corrupt")

// shortFingerprintLen is how much of the fingerprint lands in filenames.
const shortFingerprintLen = 16

// Manager provides fingerprint-keyed persistence for analysis results.
type Manager struct {
	dir    string
	logger *slog.Logger

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewManager creates the cache manager rooted at dir.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Manager{
		dir:      dir,
		logger:   logging.NewComponentLogger(logger, "analysiscache"),
		keyLocks: make(map[string]*sync.Mutex),
	}, nil
}

// ComputeFunc produces a fresh analysis result on a cache miss.
type ComputeFunc func(ctx context.Context) (analysis.Result, error)

// GetOrCompute returns the cached result for fingerprint, or invokes compute
// exactly once per fingerprint and persists its output. The second return
// value reports whether the result came from the cache.
func (m *Manager) GetOrCompute(ctx context.Context, episodeID, fingerprint string, compute ComputeFunc) (analysis.Result, bool, error) {
	if fingerprint == "" {
		return analysis.Result{}, false, errors.New("fingerprint required")
	}

	keyLock := m.lockFor(fingerprint)
	keyLock.Lock()
	defer keyLock.Unlock()

	path := m.entryPath(episodeID, fingerprint)
	if result, ok := m.lookup(episodeID, fingerprint); ok {
		return result, true, nil
	}

	// Advisory lock so a second process misses into the same fingerprint
	// without a duplicate external call.
	fileLock := flock.New(m.lockPath(fingerprint))
	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return analysis.Result{}, false, fmt.Errorf("acquire fingerprint lock: %w", err)
	}
	if !locked {
		return analysis.Result{}, false, errors.New("acquire fingerprint lock: not granted")
	}
	defer func() {
		_ = fileLock.Unlock()
	}()

	// The lock winner may have persisted while we waited.
	if result, ok := m.lookup(episodeID, fingerprint); ok {
		return result, true, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return analysis.Result{}, false, err
	}
	result.Fingerprint = fingerprint
	result.EpisodeID = episodeID
	if result.GeneratedAt.IsZero() {
		result.GeneratedAt = time.Now().UTC()
	}

	if err := m.write(path, result); err != nil {
		return analysis.Result{}, false, err
	}
	return result, false, nil
}

// Get returns the cached result without computing.
func (m *Manager) Get(episodeID, fingerprint string) (analysis.Result, bool) {
	return m.lookup(episodeID, fingerprint)
}

// lookup tries the episode-prefixed path first, then any record carrying the
// same fingerprint. Two episodes with byte-identical text share one analysis
// record; the record keeps the first writer's episode prefix.
func (m *Manager) lookup(episodeID, fingerprint string) (analysis.Result, bool) {
	if result, ok := m.read(m.entryPath(episodeID, fingerprint), fingerprint); ok {
		return result, true
	}
	matches, err := filepath.Glob(filepath.Join(m.dir, "*_"+shortFingerprint(fingerprint)+".json"))
	if err != nil {
		return analysis.Result{}, false
	}
	for _, path := range matches {
		if result, ok := m.read(path, fingerprint); ok {
			return result, true
		}
	}
	return analysis.Result{}, false
}

// Invalidate removes the record for fingerprint, wherever it lives: the
// episode-prefixed path first, then any record carrying the same fingerprint.
// Removing a record that does not exist is not an error.
func (m *Manager) Invalidate(episodeID, fingerprint string) error {
	err := os.Remove(m.entryPath(episodeID, fingerprint))
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("invalidate cache entry: %w", err)
	}
	matches, globErr := filepath.Glob(filepath.Join(m.dir, "*_"+shortFingerprint(fingerprint)+".json"))
	if globErr != nil {
		return nil
	}
	for _, path := range matches {
		if _, ok := m.read(path, fingerprint); !ok {
			continue
		}
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			return fmt.Errorf("invalidate cache entry: %w", removeErr)
		}
	}
	return nil
}

// List returns every readable cache record, sorted by episode then
// generation time. Unreadable records are skipped with a warning.
func (m *Manager) List() ([]analysis.Result, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}
	var results []analysis.Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			m.logger.Warn("skipping unreadable cache record", slog.String("path", path), logging.Error(readErr))
			continue
		}
		var result analysis.Result
		if decodeErr := json.Unmarshal(data, &result); decodeErr != nil {
			m.logger.Warn("skipping corrupt cache record", slog.String("path", path), logging.Error(decodeErr))
			continue
		}
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].EpisodeID != results[j].EpisodeID {
			return results[i].EpisodeID < results[j].EpisodeID
		}
		return results[i].GeneratedAt.Before(results[j].GeneratedAt)
	})
	return results, nil
}

// Clear removes every record and lock file from the cache directory.
func (m *Manager) Clear() (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache directory: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".lock") {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
			return removed, fmt.Errorf("remove cache record %s: %w", name, err)
		}
		if strings.HasSuffix(name, ".json") {
			removed++
		}
	}
	return removed, nil
}

func (m *Manager) lockFor(fingerprint string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.keyLocks[fingerprint]
	if !ok {
		lock = &sync.Mutex{}
		m.keyLocks[fingerprint] = lock
	}
	return lock
}

func (m *Manager) entryPath(episodeID, fingerprint string) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s_%s.json", textutil.SanitizeToken(episodeID), shortFingerprint(fingerprint)))
}

func (m *Manager) lockPath(fingerprint string) string {
	return filepath.Join(m.dir, shortFingerprint(fingerprint)+".lock")
}

func shortFingerprint(fingerprint string) string {
	if len(fingerprint) > shortFingerprintLen {
		return fingerprint[:shortFingerprintLen]
	}
	return fingerprint
}

// read loads a record, verifying it belongs to the expected fingerprint.
// Any failure is a miss; corruption is logged and the record left in place
// for inspection until recomputation overwrites it.
func (m *Manager) read(path, fingerprint string) (analysis.Result, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("cache record unreadable, treating as miss", slog.String("path", path), logging.Error(err))
		}
		return analysis.Result{}, false
	}
	var result analysis.Result
	if err := json.Unmarshal(data, &result); err != nil {
		m.logger.Warn("cache record corrupt, treating as miss",
			slog.String("path", path),
			slog.String(logging.FieldFingerprint, shortFingerprint(fingerprint)),
			logging.Error(fmt.Errorf("%w: %w", ErrCorrupt, err)),
		)
		return analysis.Result{}, false
	}
	if result.Fingerprint != fingerprint {
		m.logger.Warn("cache record fingerprint mismatch, treating as miss",
			slog.String("path", path),
			slog.String("want", shortFingerprint(fingerprint)),
			slog.String("have", shortFingerprint(result.Fingerprint)),
		)
		return analysis.Result{}, false
	}
	return result, true
}

func (m *Manager) write(path string, result analysis.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("persist cache record: %w", err)
	}
	return nil
}
