package backends

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/audionav/govorun/internal/speech"
)

// EspeakConfig holds settings for the offline espeak-ng backend.
type EspeakConfig struct {
	// Binary is the espeak-ng executable, defaults to "espeak-ng".
	Binary string

	// Language voice passed with -v, e.g. "ru".
	Language string

	// Speed in words per minute (-s), defaults to 150.
	Speed int

	// Pitch 0-99 (-p), defaults to 50.
	Pitch int

	// Amplitude 0-200 (-a), defaults to 150.
	Amplitude int

	// TempDir for intermediate files, defaults to the system temp dir.
	TempDir string
}

// Espeak renders speech with the local espeak-ng synthesizer. It needs no
// network and terminates the fallback chain: a failure here is final.
type Espeak struct {
	cfg EspeakConfig
}

// NewEspeak creates the espeak-ng backend.
func NewEspeak(cfg EspeakConfig) *Espeak {
	if cfg.Binary == "" {
		cfg.Binary = "espeak-ng"
	}
	if cfg.Language == "" {
		cfg.Language = "ru"
	}
	if cfg.Speed == 0 {
		cfg.Speed = 150
	}
	if cfg.Pitch == 0 {
		cfg.Pitch = 50
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 150
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Espeak{cfg: cfg}
}

func (e *Espeak) Name() string { return "espeak" }

func (e *Espeak) Online() bool { return false }

// Render writes a WAV through espeak-ng. Only WAV output is supported; the
// cache stores whatever format the winning backend produced.
func (e *Espeak) Render(ctx context.Context, text, _ string, format speech.Format) ([]byte, error) {
	if format != speech.FormatWAV {
		return nil, fmt.Errorf("espeak: unsupported format %q", format)
	}

	tmp, err := os.MkdirTemp(e.cfg.TempDir, "espeak-*")
	if err != nil {
		return nil, fmt.Errorf("espeak: temp dir: %w", err)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	wavPath := filepath.Join(tmp, "out.wav")
	cmd := exec.CommandContext(ctx, e.cfg.Binary,
		"-v", e.cfg.Language,
		"-s", strconv.Itoa(e.cfg.Speed),
		"-p", strconv.Itoa(e.cfg.Pitch),
		"-a", strconv.Itoa(e.cfg.Amplitude),
		"-w", wavPath,
		text,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak-ng: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("espeak: read output: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("espeak-ng produced empty audio")
	}
	return audio, nil
}
