package backends

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/audionav/govorun/internal/speech"
)

// TestGoogleRender tests a successful synthesis round trip against a stub
// of the REST API.
func TestGoogleRender(t *testing.T) {
	wantAudio := []byte("RIFF fake wav payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req googleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Input.Text != "Настройки" {
			t.Errorf("request text = %q, want %q", req.Input.Text, "Настройки")
		}
		if req.Voice.LanguageCode != "ru-RU" {
			t.Errorf("language code = %q, want ru-RU", req.Voice.LanguageCode)
		}
		if req.AudioConfig.AudioEncoding != "LINEAR16" {
			t.Errorf("encoding = %q, want LINEAR16", req.AudioConfig.AudioEncoding)
		}
		json.NewEncoder(w).Encode(googleResponse{ //nolint:errcheck
			AudioContent: base64.StdEncoding.EncodeToString(wantAudio),
		})
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{APIKey: "test-key", Endpoint: srv.URL})
	audio, err := g.Render(context.Background(), "Настройки", "ru-RU-Standard-A", speech.FormatWAV)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(audio) != string(wantAudio) {
		t.Errorf("audio = %q, want %q", audio, wantAudio)
	}
}

// TestGoogleRenderAuthFailureIsTransport tests that a rejected key lets the
// chain fall back instead of failing the render outright.
func TestGoogleRenderAuthFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{APIKey: "revoked", Endpoint: srv.URL})
	_, err := g.Render(context.Background(), "Меню", "ru-RU-Standard-A", speech.FormatWAV)
	if !speech.IsTransport(err) {
		t.Errorf("Render() error = %v, want a transport failure", err)
	}
}

// TestGoogleRenderWithoutKeyIsTransport tests the unconfigured-key guard.
func TestGoogleRenderWithoutKeyIsTransport(t *testing.T) {
	g := NewGoogle(GoogleConfig{})
	_, err := g.Render(context.Background(), "Меню", "ru-RU-Standard-A", speech.FormatWAV)
	if !speech.IsTransport(err) {
		t.Errorf("Render() error = %v, want a transport failure", err)
	}
}

// TestGoogleRenderUnreachableIsTransport tests network-level failures.
func TestGoogleRenderUnreachableIsTransport(t *testing.T) {
	g := NewGoogle(GoogleConfig{APIKey: "k", Endpoint: "http://127.0.0.1:1"})
	_, err := g.Render(context.Background(), "Меню", "ru-RU-Standard-A", speech.FormatWAV)
	if !speech.IsTransport(err) {
		t.Errorf("Render() error = %v, want a transport failure", err)
	}
}

// TestGoogleLanguageCode tests derivation of the language from the voice.
func TestGoogleLanguageCode(t *testing.T) {
	g := NewGoogle(GoogleConfig{APIKey: "k"})
	tests := []struct {
		voice string
		want  string
	}{
		{"ru-RU-Standard-A", "ru-RU"},
		{"en-US-Wavenet-C", "en-US"},
		{"bogus", "ru-RU"},
	}
	for _, tt := range tests {
		if got := g.languageCode(tt.voice); got != tt.want {
			t.Errorf("languageCode(%q) = %q, want %q", tt.voice, got, tt.want)
		}
	}

	fixed := NewGoogle(GoogleConfig{APIKey: "k", LanguageCode: "ru-RU"})
	if got := fixed.languageCode("en-US-Wavenet-C"); got != "ru-RU" {
		t.Errorf("configured language ignored, got %q", got)
	}
}

// TestBackendIdentity tests the chain-facing identity of each backend.
func TestBackendIdentity(t *testing.T) {
	tests := []struct {
		backend speech.Backend
		name    string
		online  bool
	}{
		{NewGoogle(GoogleConfig{}), "google", true},
		{NewGTTS(GTTSConfig{}), "gtts", true},
		{NewEspeak(EspeakConfig{}), "espeak", false},
	}
	for _, tt := range tests {
		if got := tt.backend.Name(); got != tt.name {
			t.Errorf("Name() = %q, want %q", got, tt.name)
		}
		if got := tt.backend.Online(); got != tt.online {
			t.Errorf("%s.Online() = %v, want %v", tt.name, got, tt.online)
		}
	}
}
