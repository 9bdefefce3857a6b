package speech

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// BackendPolicy controls when a configured backend participates in the chain.
type BackendPolicy struct {
	// Disabled removes the backend from the chain entirely.
	Disabled bool

	// DailyCharLimit skips the backend once its recorded usage for the
	// current day reaches this many characters. Zero means unlimited.
	DailyCharLimit int64
}

// Adapter renders text through an ordered chain of backends: preferred paid
// online engine first, then the free online engine, finally the offline
// engine. An online backend is skipped when it is disabled, over quota, or
// reports a transport failure; the same render is then attempted against the
// next backend, never retried against the failing one.
type Adapter struct {
	chain  []Backend
	policy map[string]BackendPolicy
	usage  *UsageTracker
	logger *log.Logger
}

// NewAdapter builds an adapter over the given chain. Order is significant.
func NewAdapter(chain []Backend, policy map[string]BackendPolicy, usage *UsageTracker, logger *log.Logger) *Adapter {
	if policy == nil {
		policy = make(map[string]BackendPolicy)
	}
	return &Adapter{
		chain:  chain,
		policy: policy,
		usage:  usage,
		logger: logger,
	}
}

// Render synthesizes text with the first backend in the chain that accepts
// the request. If every backend fails the returned error wraps
// ErrEngineExhausted.
func (a *Adapter) Render(ctx context.Context, text, voice string, format Format) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	var lastErr error
	for _, b := range a.chain {
		if skip, reason := a.skip(b); skip {
			a.logger.Debug("skipping backend", "backend", b.Name(), "reason", reason)
			lastErr = reason
			continue
		}

		audio, err := b.Render(ctx, text, voice, format)
		if err == nil {
			if b.Online() && a.usage != nil {
				a.usage.RecordRender(b.Name(), utf8.RuneCountInString(text))
			}
			return audio, nil
		}

		lastErr = err
		if b.Online() && IsTransport(err) {
			a.logger.Warn("backend transport failure, falling back",
				"backend", b.Name(), "err", err)
			continue
		}
		if !b.Online() {
			// The offline backend is the end of the chain.
			break
		}
		// A non-transport failure from an online backend (bad request,
		// unsupported voice) still falls through: the next backend may
		// render the same text differently.
		a.logger.Warn("backend render failed, falling back",
			"backend", b.Name(), "err", err)
	}

	return nil, fmt.Errorf("%w: %w", ErrEngineExhausted, lastErr)
}

// Chain returns the backend names in fallback order, for reporting.
func (a *Adapter) Chain() []string {
	names := make([]string, len(a.chain))
	for i, b := range a.chain {
		names[i] = b.Name()
	}
	return names
}

func (a *Adapter) skip(b Backend) (bool, error) {
	p, ok := a.policy[b.Name()]
	if !ok {
		return false, nil
	}
	if p.Disabled {
		return true, fmt.Errorf("%s: %w", b.Name(), ErrBackendDisabled)
	}
	if b.Online() && p.DailyCharLimit > 0 && a.usage != nil &&
		a.usage.TodayChars(b.Name()) >= p.DailyCharLimit {
		return true, fmt.Errorf("%s: %w", b.Name(), ErrQuotaExceeded)
	}
	return false, nil
}
