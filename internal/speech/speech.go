// Package speech wraps text-to-speech backends behind a single rendering
// interface with ordered online-to-offline fallback.
package speech

import "context"

// Format identifies the audio container a backend renders into.
type Format string

const (
	// FormatWAV is uncompressed PCM in a RIFF container.
	FormatWAV Format = "wav"
	// FormatMP3 is MPEG layer 3 audio.
	FormatMP3 Format = "mp3"
)

// Backend is a single speech-synthesis provider.
type Backend interface {
	// Name returns the stable backend identifier used in configuration,
	// usage accounting and cache keys.
	Name() string

	// Online reports whether the backend needs network access. Offline
	// backends terminate the fallback chain.
	Online() bool

	// Render synthesizes text into raw audio bytes in the requested format.
	// Network, authentication and rate-limit failures are reported as
	// *TransportError so the caller can advance to the next backend.
	Render(ctx context.Context, text, voice string, format Format) ([]byte, error)
}

// Voice describes a selectable synthesis voice.
type Voice struct {
	ID   string // provider voice identifier, e.g. "ru-RU-Standard-A"
	Name string // spoken human description, e.g. "Женский голос 1"
}

// AvailableVoices lists the voices offered in the settings menu.
// IDs follow the Google Cloud naming; gTTS and espeak map them to the
// closest language they support.
func AvailableVoices() []Voice {
	return []Voice{
		{ID: "ru-RU-Standard-A", Name: "Женский голос 1"},
		{ID: "ru-RU-Standard-B", Name: "Мужской голос 1"},
		{ID: "ru-RU-Standard-C", Name: "Женский голос 2"},
		{ID: "ru-RU-Standard-D", Name: "Мужской голос 2"},
		{ID: "ru-RU-Standard-E", Name: "Женский голос 3"},
	}
}
