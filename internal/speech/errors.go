package speech

import (
	"errors"
	"fmt"
)

// Common errors for the speech subsystem.
var (
	// ErrEngineExhausted means every backend in the chain failed for a render.
	ErrEngineExhausted = errors.New("all speech backends failed")

	// ErrBackendDisabled means the backend is switched off by configuration.
	ErrBackendDisabled = errors.New("backend disabled by configuration")

	// ErrQuotaExceeded means the backend's recorded usage crossed its
	// configured threshold and it is skipped to avoid paid overruns.
	ErrQuotaExceeded = errors.New("backend usage quota exceeded")

	// ErrEmptyText is returned for a render request with no text.
	ErrEmptyText = errors.New("text cannot be empty")
)

// TransportError marks a failure that is local to one online backend:
// no network, authentication rejected, rate limited. The fallback chain
// recovers from it by advancing to the next backend; it is never retried
// against the same backend within one render.
type TransportError struct {
	Backend string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport failure on some backend.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
