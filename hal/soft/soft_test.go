package soft

import (
	"testing"

	"github.com/gogpu/display/hal"
)

// TestRegistered opens the driver through the global registry.
func TestRegistered(t *testing.T) {
	found := false
	for _, name := range hal.List() {
		if name == DriverName {
			found = true
		}
	}
	if !found {
		t.Fatalf("hal.List() = %v, missing %q", hal.List(), DriverName)
	}

	d, err := hal.Open(DriverName)
	if err != nil {
		t.Fatalf("hal.Open(%q) error = %v", DriverName, err)
	}
	defer func() { _ = d.Close() }()

	if got := d.Name(); got != DriverName {
		t.Errorf("Name() = %q, want %q", got, DriverName)
	}
	if d.Allocator() == nil {
		t.Error("Allocator() = nil")
	}
	if d.Compositor() == nil {
		t.Error("Compositor() = nil")
	}
}

// TestNewDefaults checks the default panel geometry.
func TestNewDefaults(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = d.Close() }()

	snap := snapshot(t, d.comp)
	if got := snap.Bounds().Dx(); got != 480 {
		t.Errorf("panel width = %d, want 480", got)
	}
	if got := snap.Bounds().Dy(); got != 854 {
		t.Errorf("panel height = %d, want 854", got)
	}
}

// TestNewOptions applies the size and refresh overrides.
func TestNewOptions(t *testing.T) {
	d, err := New(WithSize(32, 16), WithRefreshRate(120))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = d.Close() }()

	snap := snapshot(t, d.comp)
	if snap.Bounds().Dx() != 32 || snap.Bounds().Dy() != 16 {
		t.Errorf("panel = %v, want 32x16", snap.Bounds())
	}

	if _, err := New(WithSize(0, 16)); err == nil {
		t.Error("New(WithSize(0, 16)) succeeded, want error")
	}
}

// TestDriverClose shuts the compositor down but leaves outstanding
// buffers usable.
func TestDriverClose(t *testing.T) {
	d, err := New(WithSize(8, 8))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	handle, _, err := d.Allocator().Allocate(8, 8, hal.FormatRGBA8888, hal.UsageHWRender)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	buf := handle.(*Buffer)
	if buf.Pix == nil {
		t.Error("buffer slab gone after driver close")
	}
	if err := d.Allocator().Free(handle); err != nil {
		t.Errorf("Free() after Close error = %v", err)
	}
}
