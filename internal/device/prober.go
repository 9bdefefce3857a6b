package device

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// LsblkProber resolves device identifiers with lsblk. It never mounts
// anything itself; mounting belongs to the system's automounter, and a
// partition without a mount point is simply not browsable yet.
type LsblkProber struct {
	// Dir is the directory the identifiers live in, e.g. /dev/disk/by-id.
	Dir string
}

// Probe runs lsblk against the named partition and reports label, size and
// mount path.
func (p *LsblkProber) Probe(ctx context.Context, id string) (Device, error) {
	dir := p.Dir
	if dir == "" {
		dir = DefaultWatchDir
	}
	target := filepath.Join(dir, id)

	out, err := exec.CommandContext(ctx, "lsblk", "-b", "-n", "-r",
		"-o", "LABEL,SIZE,MOUNTPOINT", target).Output()
	if err != nil {
		return Device{}, fmt.Errorf("lsblk %s: %w", id, err)
	}

	// One line per device: LABEL SIZE MOUNTPOINT, space-separated with %xx
	// escapes in raw mode.
	fields := strings.SplitN(strings.TrimSpace(string(out)), " ", 3)
	if len(fields) < 2 {
		return Device{}, fmt.Errorf("lsblk %s: unexpected output %q", id, out)
	}

	dev := Device{ID: id, Label: unescapeLsblk(fields[0])}
	if size, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
		dev.Size = size
	}
	if len(fields) == 3 {
		dev.MountPath = unescapeLsblk(strings.TrimSpace(fields[2]))
	}
	return dev, nil
}

// unescapeLsblk undoes the \xHH escaping of lsblk raw output.
func unescapeLsblk(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 4
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
