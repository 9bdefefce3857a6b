package device

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDir is where udev publishes stable block-device names.
const DefaultWatchDir = "/dev/disk/by-id"

// Watcher owns the authoritative set of attached devices and produces a
// deduplicated fact stream. Attached facts are idempotent; Detached is
// emitted even when the corresponding attach was never seen.
type Watcher struct {
	dir    string
	prober Prober
	logger *log.Logger

	mu      sync.RWMutex
	devices map[string]Device

	facts chan Fact
}

// NewWatcher creates a watcher over dir (DefaultWatchDir if empty).
func NewWatcher(dir string, prober Prober, logger *log.Logger) *Watcher {
	if dir == "" {
		dir = DefaultWatchDir
	}
	return &Watcher{
		dir:     dir,
		prober:  prober,
		logger:  logger,
		devices: make(map[string]Device),
		facts:   make(chan Fact, 16),
	}
}

// Facts returns the stream consumed by the menu event loop. The watcher is
// a producer only; it never touches navigation state.
func (w *Watcher) Facts() <-chan Fact {
	return w.facts
}

// Devices returns a snapshot of the authoritative attached set.
func (w *Watcher) Devices() []Device {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Device, 0, len(w.devices))
	for _, d := range w.devices {
		out = append(out, d)
	}
	return out
}

// Run watches for hotplug events until ctx is canceled. Devices already
// present at startup are reported as Attached facts first.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fsw.Close() //nolint:errcheck

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			name := strings.TrimPrefix(strings.TrimPrefix(ev.Name, w.dir), "/")
			if !isRemovablePartition(name) {
				continue
			}
			switch {
			case ev.Op.Has(fsnotify.Create):
				w.attach(ctx, name)
			case ev.Op.Has(fsnotify.Remove):
				w.detach(name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("device watch error", "err", err)
		}
	}
}

// scan reports devices that were attached before the watcher started.
func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("initial device scan failed", "dir", w.dir, "err", err)
		return
	}
	for _, e := range entries {
		if isRemovablePartition(e.Name()) {
			w.attach(ctx, e.Name())
		}
	}
}

func (w *Watcher) attach(ctx context.Context, id string) {
	w.mu.RLock()
	_, known := w.devices[id]
	w.mu.RUnlock()
	if known {
		// Idempotent: re-attaching a known identifier is not re-emitted.
		return
	}

	dev, err := w.prober.Probe(ctx, id)
	if err != nil {
		w.logger.Warn("device probe failed", "id", id, "err", err)
		return
	}
	if dev.MountPath == "" {
		// Mounting produces no event in the by-id directory, so a stick
		// probed before the automounter finished must be re-checked.
		w.logger.Debug("device not mounted yet, polling", "id", id)
		go w.awaitMount(ctx, id)
		return
	}
	w.register(id, dev)
}

// register adds a browsable device to the authoritative set and emits the
// attach fact. Registering a known identifier is a no-op.
func (w *Watcher) register(id string, dev Device) {
	dev.ID = id

	w.mu.Lock()
	if _, known := w.devices[id]; known {
		w.mu.Unlock()
		return
	}
	w.devices[id] = dev
	w.mu.Unlock()

	w.logger.Info("storage attached", "id", id, "mount", dev.MountPath, "label", dev.Label)
	w.emit(Fact{Kind: Attached, Device: dev})
}

// awaitMount re-probes a partition until the automounter publishes its mount
// path. Bounded: a stick that never mounts is logged and dropped; pulling the
// stick makes the probe fail, which ends the wait.
func (w *Watcher) awaitMount(ctx context.Context, id string) {
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewConstantBackOff(200*time.Millisecond), 25), ctx)

	err := backoff.Retry(func() error {
		w.mu.RLock()
		_, known := w.devices[id]
		w.mu.RUnlock()
		if known {
			return nil
		}

		dev, err := w.prober.Probe(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if dev.MountPath == "" {
			return fmt.Errorf("%s: no mount path yet", id)
		}
		w.register(id, dev)
		return nil
	}, policy)
	if err != nil {
		w.logger.Warn("device never became browsable", "id", id, "err", err)
	}
}

func (w *Watcher) detach(id string) {
	w.mu.Lock()
	dev, known := w.devices[id]
	delete(w.devices, id)
	w.mu.Unlock()

	if !known {
		dev = Device{ID: id}
	}
	w.logger.Info("storage detached", "id", id)
	w.emit(Fact{Kind: Detached, Device: dev})
}

// emit hands a fact to the consumer without ever blocking the observation
// source. When the consumer lags the oldest pending fact is dropped: the
// menu rebuilds its device list from the authoritative set on entry anyway.
func (w *Watcher) emit(f Fact) {
	for {
		select {
		case w.facts <- f:
			return
		default:
		}
		select {
		case old := <-w.facts:
			w.logger.Warn("fact queue full, dropping oldest", "kind", old.Kind.String(), "id", old.Device.ID)
		default:
		}
	}
}

// isRemovablePartition matches udev by-id names of USB storage partitions,
// e.g. "usb-Kingston_DataTraveler_3.0_1234-0:0-part1".
func isRemovablePartition(name string) bool {
	return strings.HasPrefix(name, "usb-") && strings.Contains(name, "-part")
}
