package device

import "testing"

// TestUnescapeLsblk tests decoding of lsblk raw-mode escapes.
func TestUnescapeLsblk(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"KINGSTON", "KINGSTON"},
		{`MY\x20DISK`, "MY DISK"},
		{`/media/usb\x20stick`, "/media/usb stick"},
		{`trailing\x2`, `trailing\x2`}, // incomplete escape kept verbatim
		{`\x41\x42`, "AB"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := unescapeLsblk(tt.in); got != tt.want {
			t.Errorf("unescapeLsblk(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
