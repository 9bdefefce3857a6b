// Package audio plays rendered speech artifacts. The menu engine only sees
// the Player contract; concrete players shell out to ALSA tools or decode
// in-process.
package audio

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// Player is the playback contract the menu engine drives. Stop is always
// called before Play for a superseding utterance.
type Player interface {
	// Play starts playback of the artifact at path and returns immediately.
	Play(path string) error

	// Stop halts any current playback. Stopping an idle player is a no-op.
	Stop() error

	// IsPlaying reports whether an artifact is currently audible.
	IsPlaying() bool
}

// ExecPlayer plays artifacts with the system tools used on the target
// device: aplay for WAV, mpg123 for MP3.
type ExecPlayer struct {
	logger *log.Logger

	mu      sync.Mutex
	current *exec.Cmd
	playing bool
}

// NewExecPlayer creates a player backed by aplay / mpg123.
func NewExecPlayer(logger *log.Logger) *ExecPlayer {
	return &ExecPlayer{logger: logger}
}

// Play spawns the playback process and returns without waiting for it.
func (p *ExecPlayer) Play(path string) error {
	var cmd *exec.Cmd
	switch filepath.Ext(path) {
	case ".wav":
		cmd = exec.Command("aplay", "-q", path)
	case ".mp3":
		cmd = exec.Command("mpg123", "-q", path)
	default:
		return fmt.Errorf("unsupported artifact format: %s", path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		p.stopLocked()
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	p.current = cmd
	p.playing = true

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.current == cmd {
			p.playing = false
			p.current = nil
		}
		p.mu.Unlock()
		if err != nil {
			// Stop() kills the process, so a non-zero exit here is routine.
			p.logger.Debug("playback process exited", "err", err)
		}
	}()
	return nil
}

// Stop terminates the current playback process, if any.
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *ExecPlayer) stopLocked() {
	if p.current != nil && p.current.Process != nil {
		_ = p.current.Process.Kill()
	}
	p.current = nil
	p.playing = false
}

// IsPlaying reports whether a playback process is still running.
func (p *ExecPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}
