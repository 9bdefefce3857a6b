package backends

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/audionav/govorun/internal/speech"
)

// GTTSConfig holds settings for the free Google Translate TTS backend.
type GTTSConfig struct {
	// Binary is the gtts-cli executable, defaults to "gtts-cli".
	Binary string

	// Language code passed to gtts-cli, e.g. "ru".
	Language string

	// TempDir for intermediate files, defaults to the system temp dir.
	TempDir string

	// RequestsPerMinute limits calls so Google does not block the host.
	RequestsPerMinute int
}

// GTTS renders speech through gtts-cli, the unauthenticated Google Translate
// endpoint. Free, so it sits between the paid engine and the offline one.
type GTTS struct {
	cfg     GTTSConfig
	limiter *rate.Limiter
}

// NewGTTS creates the gTTS backend.
func NewGTTS(cfg GTTSConfig) *GTTS {
	if cfg.Binary == "" {
		cfg.Binary = "gtts-cli"
	}
	if cfg.Language == "" {
		cfg.Language = "ru"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 50
	}
	return &GTTS{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
}

func (g *GTTS) Name() string { return "gtts" }

func (g *GTTS) Online() bool { return true }

// Render shells out to gtts-cli for an MP3 and converts to WAV with mpg123
// when asked for one. gtts-cli failures are transport failures: the tool only
// fails when the translate endpoint is unreachable or throttling.
func (g *GTTS) Render(ctx context.Context, text, _ string, format speech.Format) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &speech.TransportError{Backend: g.Name(), Err: err}
	}

	tmp, err := os.MkdirTemp(g.cfg.TempDir, "gtts-*")
	if err != nil {
		return nil, fmt.Errorf("gtts: temp dir: %w", err)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	mp3Path := filepath.Join(tmp, "out.mp3")
	cmd := exec.CommandContext(ctx, g.cfg.Binary,
		"--lang", g.cfg.Language,
		"--output", mp3Path,
		text,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &speech.TransportError{
			Backend: g.Name(),
			Err:     fmt.Errorf("gtts-cli: %w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	outPath := mp3Path
	if format == speech.FormatWAV {
		wavPath := filepath.Join(tmp, "out.wav")
		conv := exec.CommandContext(ctx, "mpg123", "-q", "-w", wavPath, mp3Path)
		if err := conv.Run(); err != nil {
			return nil, fmt.Errorf("gtts: mp3 to wav: %w", err)
		}
		outPath = wavPath
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("gtts: read output: %w", err)
	}
	if len(audio) == 0 {
		return nil, &speech.TransportError{Backend: g.Name(), Err: fmt.Errorf("gtts-cli produced empty audio")}
	}
	return audio, nil
}
