package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// runtimeConfig is the non-persisted process configuration. Everything a
// user changes from the menu itself lives in settings instead.
type runtimeConfig struct {
	CacheDir     string `env:"GOVORUN_CACHE_DIR"`
	SettingsFile string `env:"GOVORUN_SETTINGS"`
	WatchDir     string `env:"GOVORUN_WATCH_DIR"`

	GoogleAPIKey   string        `env:"GOVORUN_GOOGLE_API_KEY"`
	GoogleUsageURL string        `env:"GOVORUN_GOOGLE_USAGE_URL"`
	GoogleTimeout  time.Duration `env:"GOVORUN_GOOGLE_TIMEOUT" envDefault:"10s"`

	// Per-day character ceilings before the chain skips an online backend.
	GoogleDailyCharLimit int64 `env:"GOVORUN_GOOGLE_DAILY_CHARS" envDefault:"30000"`
	GTTSDailyCharLimit   int64 `env:"GOVORUN_GTTS_DAILY_CHARS" envDefault:"20000"`

	GTTSRequestsPerMinute int    `env:"GOVORUN_GTTS_RPM" envDefault:"50"`
	Language              string `env:"GOVORUN_LANGUAGE" envDefault:"ru"`

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `env:"GOVORUN_METRICS_ADDR"`
}

// loadRuntimeConfig applies defaults and environment overrides.
func loadRuntimeConfig() (runtimeConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cfg := runtimeConfig{
		CacheDir:     filepath.Join(home, "cache_tts"),
		SettingsFile: filepath.Join(home, "cache_tts", "settings.yaml"),
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
