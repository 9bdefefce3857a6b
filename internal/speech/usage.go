package speech

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UsageRecord accumulates what has been sent to one backend. Daily counters
// reset when the date rolls over; totals never reset.
type UsageRecord struct {
	Backend       string    `json:"backend"`
	TotalRequests int64     `json:"total_requests"`
	TotalChars    int64     `json:"total_chars"`
	TodayRequests int64     `json:"today_requests"`
	TodayChars    int64     `json:"today_chars"`
	TodayDate     string    `json:"today_date"`
	LastReset     time.Time `json:"last_reset"`
}

// UsageTracker keeps per-backend usage records and persists them as a small
// JSON file next to the artifact cache, so quota decisions survive restarts.
type UsageTracker struct {
	path    string
	mu      sync.Mutex
	records map[string]*UsageRecord
	now     func() time.Time

	// onRender, if set, mirrors every successful render into an external
	// metrics sink.
	onRender func(backend string, chars int)
}

// NewUsageTracker loads or creates the usage file under dir.
func NewUsageTracker(dir string) (*UsageTracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create usage dir: %w", err)
	}
	t := &UsageTracker{
		path:    filepath.Join(dir, "tts_usage.json"),
		records: make(map[string]*UsageRecord),
		now:     time.Now,
	}
	if err := t.load(); err != nil {
		// A corrupt usage file is not fatal: start over with zero counters.
		t.records = make(map[string]*UsageRecord)
	}
	return t, nil
}

// OnRender registers a callback invoked after every successful online render.
func (t *UsageTracker) OnRender(fn func(backend string, chars int)) {
	t.mu.Lock()
	t.onRender = fn
	t.mu.Unlock()
}

// RecordRender accounts one successful render of chars characters.
func (t *UsageTracker) RecordRender(backend string, chars int) {
	t.mu.Lock()
	rec := t.record(backend)
	rec.TotalRequests++
	rec.TotalChars += int64(chars)
	rec.TodayRequests++
	rec.TodayChars += int64(chars)
	fn := t.onRender
	t.save()
	t.mu.Unlock()

	if fn != nil {
		fn(backend, chars)
	}
}

// Record returns a copy of the record for one backend.
func (t *UsageTracker) Record(backend string) UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.record(backend)
}

// Records returns copies of all known records.
func (t *UsageTracker) Records() []UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]UsageRecord, 0, len(t.records))
	for name := range t.records {
		out = append(out, *t.record(name))
	}
	return out
}

// TodayChars returns how many characters went to backend since midnight.
func (t *UsageTracker) TodayChars(backend string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.record(backend).TodayChars
}

// record returns the live record for backend, rolling the daily counters
// over if the date changed. Caller holds t.mu.
func (t *UsageTracker) record(backend string) *UsageRecord {
	rec, ok := t.records[backend]
	if !ok {
		rec = &UsageRecord{
			Backend:   backend,
			TodayDate: t.now().Format("2006-01-02"),
			LastReset: t.now(),
		}
		t.records[backend] = rec
	}
	today := t.now().Format("2006-01-02")
	if rec.TodayDate != today {
		rec.TodayDate = today
		rec.TodayRequests = 0
		rec.TodayChars = 0
		rec.LastReset = t.now()
	}
	return rec
}

func (t *UsageTracker) load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &t.records)
}

// save persists the records. Write errors are swallowed: losing a counter
// update must never fail a render. Caller holds t.mu.
func (t *UsageTracker) save() {
	data, err := json.MarshalIndent(t.records, "", "  ")
	if err != nil {
		return
	}
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, t.path)
}
