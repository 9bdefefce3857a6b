package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/audionav/govorun/internal/audio"
	"github.com/audionav/govorun/internal/cache"
	"github.com/audionav/govorun/internal/device"
	"github.com/audionav/govorun/internal/menu"
	"github.com/audionav/govorun/internal/metrics"
	"github.com/audionav/govorun/internal/settings"
	"github.com/audionav/govorun/internal/speech"
	"github.com/audionav/govorun/internal/speech/backends"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	rootCmd = &cobra.Command{
		Use:          "govorun",
		Short:        "Audio-only menu assistant for the blind",
		SilenceUsage: true,
		RunE:         runMenu,
	}
)

// app bundles the long-lived components the commands share.
type app struct {
	cfg     runtimeConfig
	logger  *log.Logger
	sets    *settings.Settings
	usage   *speech.UsageTracker
	metrics *metrics.Metrics
	adapter *speech.Adapter
	store   *cache.Store
}

// buildApp wires settings, usage tracking, the backend chain and the
// artifact cache. Every command starts here; only runMenu adds the
// watcher, player and event loop on top.
func buildApp() (*app, error) {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "govorun",
	})
	if os.Getenv("GOVORUN_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}

	sets, err := settings.Load(cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	usage, err := speech.NewUsageTracker(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("usage tracker: %w", err)
	}

	m := metrics.New()
	usage.OnRender(m.RecordRender)

	adapter := speech.NewAdapter(engineChain(cfg, sets.Engine()), map[string]speech.BackendPolicy{
		"google": {
			Disabled:       cfg.GoogleAPIKey == "",
			DailyCharLimit: cfg.GoogleDailyCharLimit,
		},
		"gtts": {DailyCharLimit: cfg.GTTSDailyCharLimit},
	}, usage, logger)

	store, err := cache.NewStore(cfg.CacheDir, adapter, logger)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	store.OnActivity(m.RecordCacheHit, m.RecordCacheMiss)

	return &app{
		cfg:     cfg,
		logger:  logger,
		sets:    sets,
		usage:   usage,
		metrics: m,
		adapter: adapter,
		store:   store,
	}, nil
}

// engineChain builds the fallback chain headed by the configured engine.
// The offline synthesizer always terminates the chain so the device keeps
// speaking without a network.
func engineChain(cfg runtimeConfig, head string) []speech.Backend {
	google := backends.NewGoogle(backends.GoogleConfig{
		APIKey:  cfg.GoogleAPIKey,
		Timeout: cfg.GoogleTimeout,
	})
	gtts := backends.NewGTTS(backends.GTTSConfig{
		Language:          cfg.Language,
		RequestsPerMinute: cfg.GTTSRequestsPerMinute,
	})
	espeak := backends.NewEspeak(backends.EspeakConfig{Language: cfg.Language})

	switch head {
	case "gtts":
		return []speech.Backend{gtts, espeak}
	case "espeak":
		return []speech.Backend{espeak}
	default:
		return []speech.Backend{google, gtts, espeak}
	}
}

// newPlayer picks the playback implementation from the persisted setting.
func newPlayer(name string, logger *log.Logger) (audio.Player, error) {
	if name == "oto" {
		return audio.NewOtoPlayer(24000, 1)
	}
	return audio.NewExecPlayer(logger), nil
}

func runMenu(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player, err := newPlayer(a.sets.Player(), a.logger)
	if err != nil {
		return fmt.Errorf("player: %w", err)
	}

	watchDir := a.cfg.WatchDir
	if watchDir == "" {
		watchDir = device.DefaultWatchDir
	}
	watcher := device.NewWatcher(watchDir, &device.LsblkProber{}, a.logger)

	root := buildMenu(watcher, a.sets, a.logger)

	voice := a.sets.Voice()
	engine := a.sets.Engine()
	resolver := menu.ResolveFunc(func(ctx context.Context, text string) (string, error) {
		return a.store.Resolve(ctx, cache.NewKey(text, voice, engine, speech.FormatWAV))
	})

	eng, err := menu.NewEngine(root, resolver, player, menu.Config{ErrorCue: errorCueLabel}, a.logger)
	if err != nil {
		return fmt.Errorf("menu: %w", err)
	}

	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("device watcher stopped", "err", err)
		}
	}()
	go forwardFacts(ctx, watcher, eng)
	go readInput(ctx, os.Stdin, eng, a.logger)

	if a.cfg.MetricsAddr != "" {
		go serveMetrics(ctx, a.cfg.MetricsAddr, a.metrics, a.logger)
	}

	a.logger.Info("started",
		"engine", engine,
		"voice", voice,
		"chain", strings.Join(a.adapter.Chain(), ","),
		"cache", a.cfg.CacheDir)

	return eng.Run(ctx)
}

// forwardFacts feeds hotplug facts into the menu loop.
func forwardFacts(ctx context.Context, w *device.Watcher, eng *menu.Engine) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-w.Facts():
			if !ok {
				return
			}
			eng.Submit(menu.Event{Kind: menu.DeviceEvent, Fact: &f})
		}
	}
}

// readInput maps stdin lines to navigation events. Bench substitute for
// the GPIO button matrix: up, down, enter (or ok), back.
func readInput(ctx context.Context, r *os.File, eng *menu.Engine, logger *log.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.TrimSpace(strings.ToLower(sc.Text())) {
		case "up", "w":
			eng.Submit(menu.Event{Kind: menu.NavigateUp})
		case "down", "s":
			eng.Submit(menu.Event{Kind: menu.NavigateDown})
		case "enter", "ok", "d":
			eng.Submit(menu.Event{Kind: menu.SelectItem})
		case "back", "a":
			eng.Submit(menu.Event{Kind: menu.GoBack})
		case "":
		default:
			logger.Debug("unknown input", "line", sc.Text())
		}
	}
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()
	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server", "err", err)
	}
}

func main() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
