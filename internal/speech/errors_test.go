package speech

import (
	"errors"
	"fmt"
	"testing"
)

// TestIsTransport tests transport-failure detection through wrapping.
func TestIsTransport(t *testing.T) {
	base := errors.New("connection refused")
	te := &TransportError{Backend: "google", Err: base}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", base, false},
		{"transport error", te, true},
		{"wrapped transport error", fmt.Errorf("render: %w", te), true},
		{"disabled sentinel", ErrBackendDisabled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransport(tt.err); got != tt.want {
				t.Errorf("IsTransport(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestTransportErrorUnwrap tests that the underlying cause stays reachable.
func TestTransportErrorUnwrap(t *testing.T) {
	base := errors.New("tls handshake failed")
	te := &TransportError{Backend: "gtts", Err: base}

	if !errors.Is(te, base) {
		t.Error("errors.Is does not reach the wrapped cause")
	}
	if msg := te.Error(); msg != "gtts: transport failure: tls handshake failed" {
		t.Errorf("Error() = %q", msg)
	}
}
