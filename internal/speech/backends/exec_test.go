package backends

import (
	"context"
	"strings"
	"testing"

	"github.com/audionav/govorun/internal/speech"
)

// TestGTTSMissingBinaryIsTransport tests that an absent gtts-cli reads as a
// transport failure so the chain falls through to the offline engine.
func TestGTTSMissingBinaryIsTransport(t *testing.T) {
	g := NewGTTS(GTTSConfig{Binary: "/nonexistent/gtts-cli", RequestsPerMinute: 600})
	_, err := g.Render(context.Background(), "привет", "", speech.FormatMP3)
	if !speech.IsTransport(err) {
		t.Errorf("Render() error = %v, want a transport failure", err)
	}
}

// TestGTTSRateLimiterHonorsContext tests that a canceled wait surfaces as a
// transport failure instead of hanging.
func TestGTTSRateLimiterHonorsContext(t *testing.T) {
	g := NewGTTS(GTTSConfig{Binary: "/nonexistent/gtts-cli", RequestsPerMinute: 1})
	ctx, cancel := context.WithCancel(context.Background())

	// First render consumes the single token; cancel before the second can
	// acquire one.
	_, _ = g.Render(ctx, "раз", "", speech.FormatMP3)
	cancel()
	_, err := g.Render(ctx, "два", "", speech.FormatMP3)
	if !speech.IsTransport(err) {
		t.Errorf("Render() after cancel error = %v, want a transport failure", err)
	}
}

// TestEspeakRejectsNonWAV tests the format guard of the offline engine.
func TestEspeakRejectsNonWAV(t *testing.T) {
	e := NewEspeak(EspeakConfig{})
	_, err := e.Render(context.Background(), "привет", "", speech.FormatMP3)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("Render(mp3) error = %v, want unsupported format", err)
	}
}

// TestEspeakMissingBinaryFails tests that a broken install is an ordinary
// error, not a transport failure: there is nothing to fall back to.
func TestEspeakMissingBinaryFails(t *testing.T) {
	e := NewEspeak(EspeakConfig{Binary: "/nonexistent/espeak-ng"})
	_, err := e.Render(context.Background(), "привет", "", speech.FormatWAV)
	if err == nil {
		t.Fatal("Render() = nil error with a missing binary")
	}
	if speech.IsTransport(err) {
		t.Errorf("Render() error = %v, offline failures must not read as transport", err)
	}
}
