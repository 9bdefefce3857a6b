package speech

import (
	"context"
	"sync"
	"time"
)

// MockBackend is a controllable backend for tests.
type MockBackend struct {
	name   string
	online bool

	mu        sync.Mutex
	delay     time.Duration
	failWith  error
	callCount int
	lastText  string
}

// NewMockBackend creates a mock with the given identity.
func NewMockBackend(name string, online bool) *MockBackend {
	return &MockBackend{name: name, online: online}
}

func (m *MockBackend) Name() string { return m.name }

func (m *MockBackend) Online() bool { return m.online }

// Render returns deterministic fake audio bytes, or the configured failure.
func (m *MockBackend) Render(ctx context.Context, text, voice string, format Format) ([]byte, error) {
	m.mu.Lock()
	m.callCount++
	m.lastText = text
	delay := m.delay
	failWith := m.failWith
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failWith != nil {
		return nil, failWith
	}
	return []byte("audio:" + m.name + ":" + voice + ":" + string(format) + ":" + text), nil
}

// SetDelay makes every render take at least d.
func (m *MockBackend) SetDelay(d time.Duration) {
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

// SetFailure makes every render fail with err; nil restores success.
func (m *MockBackend) SetFailure(err error) {
	m.mu.Lock()
	m.failWith = err
	m.mu.Unlock()
}

// CallCount reports how many renders were attempted.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastText reports the text of the most recent render.
func (m *MockBackend) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText
}
