// Package settings persists the small set of user-changeable options:
// selected voice, engine and player. Read at startup, written on every
// settings-menu change.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/audionav/govorun/internal/speech"
)

// Engines that can head the fallback chain.
var validEngines = []string{"google", "gtts", "espeak"}

// Players that can be selected.
var validPlayers = []string{"exec", "oto"}

// Defaults mirror the device's shipped configuration.
const (
	DefaultVoice  = "ru-RU-Standard-A"
	DefaultEngine = "google"
	DefaultPlayer = "exec"
)

// Settings is the persisted configuration. Values are re-read from one
// viper-backed file; mutating setters write through immediately.
type Settings struct {
	mu sync.Mutex
	v  *viper.Viper
}

// Load opens (or creates) the settings file at path.
func Load(path string) (*Settings, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("voice", DefaultVoice)
	v.SetDefault("engine", DefaultEngine)
	v.SetDefault("player", DefaultPlayer)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if err := v.SafeWriteConfigAs(path); err != nil {
				return nil, fmt.Errorf("write initial settings: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}
	return &Settings{v: v}, nil
}

// Voice returns the persisted voice identifier.
func (s *Settings) Voice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString("voice")
}

// SetVoice validates and persists a new voice selection.
func (s *Settings) SetVoice(id string) error {
	found := false
	for _, v := range speech.AvailableVoices() {
		if v.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown voice %q", id)
	}
	return s.set("voice", id)
}

// Engine returns the persisted preferred engine.
func (s *Settings) Engine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString("engine")
}

// SetEngine validates and persists the preferred engine.
func (s *Settings) SetEngine(name string) error {
	if !contains(validEngines, name) {
		return fmt.Errorf("unknown engine %q (valid: %v)", name, validEngines)
	}
	return s.set("engine", name)
}

// Player returns the persisted player selection.
func (s *Settings) Player() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString("player")
}

// SetPlayer validates and persists the player selection.
func (s *Settings) SetPlayer(name string) error {
	if !contains(validPlayers, name) {
		return fmt.Errorf("unknown player %q (valid: %v)", name, validPlayers)
	}
	return s.set("player", name)
}

// All returns every persisted key and value, for the config command.
func (s *Settings) All() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.AllSettings()
}

func (s *Settings) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	if err := s.v.WriteConfig(); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
