package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer decodes WAV artifacts and plays them in-process through the OTO
// audio context, for hosts without the ALSA command-line tools. All artifacts
// must share the sample rate and channel count the player was created with;
// the OTO context is fixed for the life of the process.
type OtoPlayer struct {
	ctx *oto.Context

	mu      sync.Mutex
	current *oto.Player
}

// NewOtoPlayer initializes the audio context and waits for it to come up.
func NewOtoPlayer(sampleRate, channels int) (*OtoPlayer, error) {
	if sampleRate == 0 {
		sampleRate = 22050
	}
	if channels == 0 {
		channels = 1
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("audio context did not become ready")
	}
	return &OtoPlayer{ctx: ctx}, nil
}

// Play starts playback of the WAV artifact at path.
func (p *OtoPlayer) Play(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	pcm, err := wavData(data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		_ = p.current.Close()
	}
	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	p.current = player
	return nil
}

// Stop closes the current player, halting playback immediately.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		err := p.current.Close()
		p.current = nil
		return err
	}
	return nil
}

// IsPlaying reports whether samples are still being consumed.
func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.IsPlaying()
}

// wavData extracts the PCM payload from a RIFF/WAVE file.
func wavData(data []byte) ([]byte, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a WAV file")
	}
	// Walk the chunk list for "data"; espeak and LINEAR16 output may carry
	// extra chunks before it.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		if id == "data" {
			return data[body : body+size], nil
		}
		// Chunks are word-aligned.
		off = body + size + (size & 1)
	}
	return nil, fmt.Errorf("WAV file has no data chunk")
}
