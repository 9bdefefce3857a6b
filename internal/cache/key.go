package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/audionav/govorun/internal/speech"
)

// Key identifies one renderable utterance. Two requests with the same Key
// always resolve to the same on-disk artifact.
type Key struct {
	Text   string // normalized utterance text
	Voice  string // voice identifier, e.g. "ru-RU-Standard-A"
	Engine string // configured engine identifier, e.g. "google"
	Format speech.Format
}

// NewKey builds a Key with the text normalized: surrounding whitespace
// stripped and internal runs collapsed, so "Папка  A " and "Папка A" share
// an artifact.
func NewKey(text, voice, engine string, format speech.Format) Key {
	return Key{
		Text:   strings.Join(strings.Fields(text), " "),
		Voice:  voice,
		Engine: engine,
		Format: format,
	}
}

// Filename returns the deterministic artifact name for the key: a truncated
// SHA-256 over the identity fields plus the format as extension. Re-running
// pre-generation therefore lands on the same files.
func (k Key) Filename() string {
	h := sha256.New()
	h.Write([]byte(k.Text))
	h.Write([]byte{0})
	h.Write([]byte(k.Voice))
	h.Write([]byte{0})
	h.Write([]byte(k.Engine))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]) + "." + string(k.Format)
}
