// Package cache is a content-addressed on-disk store of rendered speech
// artifacts. It guarantees at most one in-flight generation per key while
// serving concurrent readers, and detects truncated or corrupt artifacts by
// content hash.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/audionav/govorun/internal/speech"
)

// Renderer produces raw audio for a cache miss. *speech.Adapter satisfies it.
type Renderer interface {
	Render(ctx context.Context, text, voice string, format speech.Format) ([]byte, error)
}

// GenerationError wraps a failure to render or publish an artifact. The key
// stays retryable: the next Resolve attempts generation again.
type GenerationError struct {
	Key Key
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %q: %v", e.Key.Text, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Entry records one published artifact.
type Entry struct {
	Path      string    `json:"path"`
	Hash      string    `json:"hash"` // hex SHA-256 of the file contents
	CreatedAt time.Time `json:"created_at"`
}

// Stats counts store activity since startup.
type Stats struct {
	Hits    int64
	Misses  int64
	Renders int64
	Errors  int64
}

// Store is the artifact cache. All methods are safe for concurrent use.
type Store struct {
	dir      string
	renderer Renderer
	logger   *log.Logger

	mu    sync.RWMutex
	index map[string]Entry // filename -> entry
	stats Stats

	flight singleflight.Group

	// onHit/onMiss mirror store activity into an external metrics sink.
	onHit  func()
	onMiss func()
}

// NewStore opens (or creates) the cache under dir and loads its index.
func NewStore(dir string, renderer Renderer, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	s := &Store{
		dir:      dir,
		renderer: renderer,
		logger:   logger,
		index:    make(map[string]Entry),
	}
	if err := s.loadIndex(); err != nil {
		// A missing or corrupt index is recoverable: entries are re-adopted
		// from disk as they are resolved.
		s.index = make(map[string]Entry)
	}
	return s, nil
}

// OnActivity registers callbacks mirrored on every hit and miss.
func (s *Store) OnActivity(onHit, onMiss func()) {
	s.mu.Lock()
	s.onHit = onHit
	s.onMiss = onMiss
	s.mu.Unlock()
}

// Resolve returns the artifact path for key, rendering and publishing it
// first if no valid artifact exists. Concurrent calls for the same key share
// one generation; a failed generation surfaces the same *GenerationError to
// every waiter without poisoning the key.
func (s *Store) Resolve(ctx context.Context, key Key) (string, error) {
	name := key.Filename()

	if path, ok := s.lookup(name); ok {
		s.hit()
		return path, nil
	}

	v, err, _ := s.flight.Do(name, func() (interface{}, error) {
		// Re-check after acquiring the flight: a caller queued behind a
		// completed generation is a hit, not a second miss. A miss is
		// counted only when generation actually runs.
		if path, ok := s.lookup(name); ok {
			s.hit()
			return path, nil
		}
		s.miss()
		return s.generate(ctx, key, name)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Contains reports whether a valid artifact for key is already published.
func (s *Store) Contains(key Key) bool {
	_, ok := s.lookup(key.Filename())
	return ok
}

// Stats returns activity counters since startup.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// lookup returns the path for name if a valid artifact exists. A file that
// is present on disk but absent from the index (for example after an index
// loss) is hashed and adopted instead of re-rendered.
func (s *Store) lookup(name string) (string, bool) {
	path := filepath.Join(s.dir, name)

	s.mu.RLock()
	entry, indexed := s.index[name]
	s.mu.RUnlock()

	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		if indexed {
			s.dropEntry(name)
		}
		return "", false
	}

	hash, err := hashFile(path)
	if err != nil {
		return "", false
	}
	if indexed {
		if hash != entry.Hash {
			// Corrupt or truncated artifact from a crashed write: treat as
			// a miss and regenerate. The file itself must go too, or the
			// orphan-adoption branch would re-index the corrupt bytes.
			s.logger.Warn("cache artifact hash mismatch, regenerating", "file", name)
			os.Remove(path) //nolint:errcheck
			s.dropEntry(name)
			return "", false
		}
		return path, true
	}

	// Adopt the orphaned artifact.
	s.mu.Lock()
	s.index[name] = Entry{Path: path, Hash: hash, CreatedAt: fi.ModTime()}
	s.saveIndexLocked()
	s.mu.Unlock()
	return path, true
}

// generate renders the audio and atomically publishes it: write to a temp
// file, then rename into place only after the write fully completed.
func (s *Store) generate(ctx context.Context, key Key, name string) (string, error) {
	audio, err := s.renderer.Render(ctx, key.Text, key.Voice, key.Format)
	if err != nil {
		s.renderError()
		return "", &GenerationError{Key: key, Err: err}
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, audio, 0o644); err != nil {
		s.renderError()
		return "", &GenerationError{Key: key, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		s.renderError()
		return "", &GenerationError{Key: key, Err: err}
	}

	sum := sha256.Sum256(audio)
	s.mu.Lock()
	s.index[name] = Entry{
		Path:      path,
		Hash:      hex.EncodeToString(sum[:]),
		CreatedAt: time.Now(),
	}
	s.stats.Renders++
	s.saveIndexLocked()
	s.mu.Unlock()

	s.logger.Debug("published artifact", "file", name, "bytes", len(audio), "text", key.Text)
	return path, nil
}

func (s *Store) dropEntry(name string) {
	s.mu.Lock()
	delete(s.index, name)
	s.saveIndexLocked()
	s.mu.Unlock()
}

func (s *Store) hit() {
	s.mu.Lock()
	s.stats.Hits++
	fn := s.onHit
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Store) miss() {
	s.mu.Lock()
	s.stats.Misses++
	fn := s.onMiss
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Store) renderError() {
	s.mu.Lock()
	s.stats.Errors++
	s.mu.Unlock()
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "index.json")
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &s.index)
}

// saveIndexLocked persists the index with an atomic rename. Caller holds s.mu.
// A failed save only costs re-adoption on the next startup.
func (s *Store) saveIndexLocked() {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return
	}
	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, s.indexPath())
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
