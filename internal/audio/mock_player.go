package audio

import "sync"

// MockPlayer records playback calls for tests.
type MockPlayer struct {
	mu      sync.Mutex
	playing bool
	played  []string
	stops   int
}

// NewMockPlayer creates an idle mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play records the path and marks the player as playing.
func (m *MockPlayer) Play(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.played = append(m.played, path)
	m.playing = true
	return nil
}

// Stop marks the player idle and counts the call.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.playing = false
	return nil
}

// IsPlaying reports the recorded state.
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Played returns a copy of every path passed to Play, in order.
func (m *MockPlayer) Played() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.played))
	copy(out, m.played)
	return out
}

// StopCount returns how many times Stop was called.
func (m *MockPlayer) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// LastPlayed returns the most recent artifact path, or "".
func (m *MockPlayer) LastPlayed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.played) == 0 {
		return ""
	}
	return m.played[len(m.played)-1]
}
