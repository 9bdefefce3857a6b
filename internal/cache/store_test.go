package cache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/audionav/govorun/internal/speech"
)

func newTestStore(t *testing.T, renderer Renderer) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir, renderer, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s, dir
}

func testKey(text string) Key {
	return NewKey(text, "ru-RU-Standard-A", "google", speech.FormatWAV)
}

// TestResolveRendersOnceThenHits tests miss-then-hit behavior for one key.
func TestResolveRendersOnceThenHits(t *testing.T) {
	backend := speech.NewMockBackend("mock", true)
	s, _ := newTestStore(t, backend)
	ctx := context.Background()
	key := testKey("Настройки")

	path1, err := s.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	path2, err := s.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if path1 != path2 {
		t.Errorf("paths differ: %q vs %q", path1, path2)
	}
	if backend.CallCount() != 1 {
		t.Errorf("render count = %d, want 1", backend.CallCount())
	}

	stats := s.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Renders != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 render", stats)
	}
}

// TestConcurrentResolveSharesOneGeneration tests that many simultaneous
// callers for the same key trigger exactly one render.
func TestConcurrentResolveSharesOneGeneration(t *testing.T) {
	backend := speech.NewMockBackend("mock", true)
	backend.SetDelay(30 * time.Millisecond)
	s, _ := newTestStore(t, backend)
	ctx := context.Background()
	key := testKey("Режим диктофона")

	const callers = 16
	paths := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = s.Resolve(ctx, key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: Resolve() error = %v", i, errs[i])
		}
		if paths[i] != paths[0] {
			t.Errorf("caller %d got %q, want %q", i, paths[i], paths[0])
		}
	}
	if backend.CallCount() != 1 {
		t.Errorf("render count = %d, want exactly 1", backend.CallCount())
	}
	if got := s.Stats().Misses; got != 1 {
		t.Errorf("stats.Misses = %d, want 1 for one shared generation", got)
	}
}

// TestDeletedArtifactRegenerates tests that removing a published file makes
// the next Resolve render again instead of returning a dead path.
func TestDeletedArtifactRegenerates(t *testing.T) {
	backend := speech.NewMockBackend("mock", true)
	s, _ := newTestStore(t, backend)
	ctx := context.Background()
	key := testKey("Выбор голоса")

	path, err := s.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing artifact: %v", err)
	}

	path2, err := s.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve() after delete error = %v", err)
	}
	if path2 != path {
		t.Errorf("regenerated path = %q, want stable %q", path2, path)
	}
	if backend.CallCount() != 2 {
		t.Errorf("render count = %d, want 2", backend.CallCount())
	}
}

// TestCorruptArtifactRegenerates tests that an artifact whose contents no
// longer match the recorded hash is treated as a miss.
func TestCorruptArtifactRegenerates(t *testing.T) {
	backend := speech.NewMockBackend("mock", true)
	s, _ := newTestStore(t, backend)
	ctx := context.Background()
	key := testKey("Режим звонка")

	path, err := s.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("truncated garbage"), 0o644); err != nil {
		t.Fatalf("corrupting artifact: %v", err)
	}

	if s.Contains(key) {
		t.Error("Contains() = true for a corrupt artifact, want false")
	}
	// The corrupt file must be removed, or the next lookup would adopt it
	// as an orphan and serve the bad bytes as a hit.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt artifact left on disk")
	}
	if _, err := s.Resolve(ctx, key); err != nil {
		t.Fatalf("Resolve() after corruption error = %v", err)
	}
	if backend.CallCount() != 2 {
		t.Errorf("render count = %d, want 2", backend.CallCount())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading regenerated artifact: %v", err)
	}
	if string(data) == "truncated garbage" {
		t.Error("artifact contents were not regenerated")
	}
}

// TestOrphanedArtifactAdopted tests that a file present on disk but missing
// from the index is hashed and served without re-rendering.
func TestOrphanedArtifactAdopted(t *testing.T) {
	backend := speech.NewMockBackend("mock", true)
	dir := t.TempDir()
	logger := log.New(io.Discard)

	first, err := NewStore(dir, backend, logger)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	key := testKey("Радио")
	if _, err := first.Resolve(ctx, key); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Simulate index loss and reopen over the surviving artifacts.
	if err := os.Remove(filepath.Join(dir, "index.json")); err != nil {
		t.Fatalf("removing index: %v", err)
	}
	second, err := NewStore(dir, backend, logger)
	if err != nil {
		t.Fatalf("reopen NewStore() error = %v", err)
	}
	if _, err := second.Resolve(ctx, key); err != nil {
		t.Fatalf("Resolve() after reopen error = %v", err)
	}
	if backend.CallCount() != 1 {
		t.Errorf("render count = %d, want 1 (orphan adopted, not re-rendered)", backend.CallCount())
	}
}

// TestGenerationFailureStaysRetryable tests that a failed render surfaces a
// GenerationError and a later Resolve tries again.
func TestGenerationFailureStaysRetryable(t *testing.T) {
	backend := speech.NewMockBackend("mock", true)
	backend.SetFailure(errors.New("engine down"))
	s, _ := newTestStore(t, backend)
	ctx := context.Background()
	key := testKey("Избранные контакты")

	_, err := s.Resolve(ctx, key)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Resolve() error = %v, want *GenerationError", err)
	}
	if genErr.Key.Text != key.Text {
		t.Errorf("GenerationError key text = %q, want %q", genErr.Key.Text, key.Text)
	}

	backend.SetFailure(nil)
	if _, err := s.Resolve(ctx, key); err != nil {
		t.Fatalf("Resolve() after recovery error = %v", err)
	}
	if got := s.Stats().Errors; got != 1 {
		t.Errorf("stats.Errors = %d, want 1", got)
	}
}

// TestPregenerateIdempotent tests that a second pre-generation pass renders
// nothing new.
func TestPregenerateIdempotent(t *testing.T) {
	backend := speech.NewMockBackend("mock", true)
	s, _ := newTestStore(t, backend)
	ctx := context.Background()
	labels := []string{"Меню", "Настройки", "", "Радио"}

	n, err := s.Pregenerate(ctx, labels, "ru-RU-Standard-A", "google", speech.FormatWAV)
	if err != nil {
		t.Fatalf("Pregenerate() error = %v", err)
	}
	if n != 3 {
		t.Errorf("first pass rendered %d, want 3 (empty label skipped)", n)
	}

	n, err = s.Pregenerate(ctx, labels, "ru-RU-Standard-A", "google", speech.FormatWAV)
	if err != nil {
		t.Fatalf("second Pregenerate() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second pass rendered %d, want 0", n)
	}
	if backend.CallCount() != 3 {
		t.Errorf("render count = %d, want 3", backend.CallCount())
	}
}

// TestPregenerateReportsPerLabelFailures tests that one failing label does
// not stop the walk.
func TestPregenerateReportsPerLabelFailures(t *testing.T) {
	calls := 0
	renderer := renderFunc(func(_ context.Context, text, _ string, _ speech.Format) ([]byte, error) {
		calls++
		if text == "Сломано" {
			return nil, errors.New("no audio")
		}
		return []byte("audio:" + text), nil
	})
	s, _ := newTestStore(t, renderer)

	n, err := s.Pregenerate(context.Background(),
		[]string{"Первый", "Сломано", "Второй"},
		"ru-RU-Standard-A", "google", speech.FormatWAV)
	if err == nil {
		t.Fatal("Pregenerate() = nil error, want the failing label reported")
	}
	if n != 2 {
		t.Errorf("rendered %d, want 2", n)
	}
	if calls != 3 {
		t.Errorf("renderer called %d times, want 3", calls)
	}
}

// renderFunc adapts a function to the Renderer interface for tests.
type renderFunc func(ctx context.Context, text, voice string, format speech.Format) ([]byte, error)

func (f renderFunc) Render(ctx context.Context, text, voice string, format speech.Format) ([]byte, error) {
	return f(ctx, text, voice, format)
}
