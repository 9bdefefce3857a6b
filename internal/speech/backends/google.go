// Package backends contains the concrete speech-synthesis providers.
package backends

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/audionav/govorun/internal/speech"
)

const googleEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// GoogleConfig holds settings for the Google Cloud TTS backend.
type GoogleConfig struct {
	APIKey       string
	Endpoint     string        // synthesis URL, defaults to the public API
	LanguageCode string        // derived from the voice when empty
	SpeakingRate float64       // 1.0 = normal
	Timeout      time.Duration // per-request HTTP timeout
}

// Google renders speech through the Google Cloud Text-to-Speech REST API.
// It is the preferred paid online engine in the fallback chain.
type Google struct {
	cfg    GoogleConfig
	client *http.Client
}

// NewGoogle creates the Google Cloud TTS backend.
func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.Endpoint == "" {
		cfg.Endpoint = googleEndpoint
	}
	if cfg.SpeakingRate == 0 {
		cfg.SpeakingRate = 1.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Google{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Online() bool { return true }

type googleRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
	} `json:"audioConfig"`
}

type googleResponse struct {
	AudioContent string `json:"audioContent"`
}

// Render synthesizes text via the REST API. Authentication, rate-limit and
// network failures come back as *speech.TransportError.
func (g *Google) Render(ctx context.Context, text, voice string, format speech.Format) ([]byte, error) {
	if g.cfg.APIKey == "" {
		return nil, &speech.TransportError{Backend: g.Name(), Err: fmt.Errorf("no API key configured")}
	}

	var reqBody googleRequest
	reqBody.Input.Text = text
	reqBody.Voice.Name = voice
	reqBody.Voice.LanguageCode = g.languageCode(voice)
	reqBody.AudioConfig.SpeakingRate = g.cfg.SpeakingRate
	switch format {
	case speech.FormatWAV:
		reqBody.AudioConfig.AudioEncoding = "LINEAR16"
	case speech.FormatMP3:
		reqBody.AudioConfig.AudioEncoding = "MP3"
	default:
		return nil, fmt.Errorf("google: unsupported format %q", format)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("google: encode request: %w", err)
	}

	url := g.cfg.Endpoint + "?key=" + g.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &speech.TransportError{Backend: g.Name(), Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &speech.TransportError{
			Backend: g.Name(),
			Err:     fmt.Errorf("HTTP %d: %s", resp.StatusCode, body),
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google: HTTP %d: %s", resp.StatusCode, body)
	}

	var out googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &speech.TransportError{Backend: g.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("google: decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("google: empty audio in response")
	}
	return audio, nil
}

// languageCode derives "ru-RU" from a voice like "ru-RU-Standard-A".
func (g *Google) languageCode(voice string) string {
	if g.cfg.LanguageCode != "" {
		return g.cfg.LanguageCode
	}
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "ru-RU"
}
