// Package device observes removable-storage attach/detach and publishes a
// normalized stream of facts. Mounting itself is delegated to an external
// Prober; a device only becomes browsable once its mount path is known.
package device

import (
	"context"

	"github.com/dustin/go-humanize"
)

// Device is one attached removable-storage partition.
type Device struct {
	ID        string // stable identifier, e.g. the /dev/disk/by-id name
	MountPath string // where the filesystem is reachable
	Label     string // human volume label, may be empty
	Size      uint64 // capacity in bytes
}

// SpokenLabel is the text the menu speaks for this device.
func (d Device) SpokenLabel() string {
	label := d.Label
	if label == "" {
		label = "Флешка"
	}
	if d.Size == 0 {
		return label
	}
	return label + ", " + humanize.Bytes(d.Size)
}

// FactKind discriminates attach from detach.
type FactKind int

const (
	// Attached means the device is mounted and browsable.
	Attached FactKind = iota
	// Detached means the device is gone.
	Detached
)

func (k FactKind) String() string {
	if k == Detached {
		return "detached"
	}
	return "attached"
}

// Fact is one normalized storage event.
type Fact struct {
	Kind   FactKind
	Device Device
}

// Prober resolves a raw device identifier into a browsable Device. It is the
// seam to the OS mount tooling (udisks2, lsblk): implementations mount the
// partition if needed and report the resulting mount path, label and size.
type Prober interface {
	Probe(ctx context.Context, id string) (Device, error)
}
