package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordRender tests the per-backend render counters.
func TestRecordRender(t *testing.T) {
	m := New()
	m.RecordRender("google", 10)
	m.RecordRender("google", 5)
	m.RecordRender("espeak", 3)

	if got := testutil.ToFloat64(m.renders.WithLabelValues("google")); got != 2 {
		t.Errorf("google renders = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.renderChars.WithLabelValues("google")); got != 15 {
		t.Errorf("google chars = %v, want 15", got)
	}
	if got := testutil.ToFloat64(m.renders.WithLabelValues("espeak")); got != 1 {
		t.Errorf("espeak renders = %v, want 1", got)
	}
}

// TestRecordCacheActivity tests the hit and miss counters.
func TestRecordCacheActivity(t *testing.T) {
	m := New()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()

	if got := testutil.ToFloat64(m.cacheHits); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheMisses); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
}

// TestHandlerServesRegistry tests that the endpoint exposes the collectors.
func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.RecordRender("google", 7)

	count, err := testutil.GatherAndCount(m.registry,
		"tts_renders_total", "tts_render_chars_total")
	if err != nil {
		t.Fatalf("gathering: %v", err)
	}
	if count != 2 {
		t.Errorf("gathered %d series, want 2", count)
	}
	if m.Handler() == nil {
		t.Error("Handler() = nil")
	}
}
