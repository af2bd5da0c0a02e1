// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"errors"
	"testing"
)

// stubDriver is a minimal Driver for registry tests.
type stubDriver struct {
	name string
}

func (d *stubDriver) Name() string           { return d.name }
func (d *stubDriver) Allocator() Allocator   { return nil }
func (d *stubDriver) Compositor() Compositor { return nil }
func (d *stubDriver) Close() error           { return nil }

func stubFactory(name string) DriverFactory {
	return func() (Driver, error) {
		return &stubDriver{name: name}, nil
	}
}

// TestRegistryRegister tests driver registration.
func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	r.Register("test", 50, stubFactory("test"), nil)

	entry, ok := r.Get("test")
	if !ok {
		t.Fatal("registered driver not found")
	}

	if entry.Name != "test" {
		t.Errorf("Name = %s, want test", entry.Name)
	}
	if entry.Priority != 50 {
		t.Errorf("Priority = %d, want 50", entry.Priority)
	}
	if !entry.Available() {
		t.Error("driver should be available (nil Available func)")
	}
}

// TestRegistryUnregister tests driver removal.
func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()

	r.Register("temp", 10, stubFactory("temp"), nil)

	_, ok := r.Get("temp")
	if !ok {
		t.Fatal("driver should exist before unregister")
	}

	r.Unregister("temp")

	_, ok = r.Get("temp")
	if ok {
		t.Error("driver should not exist after unregister")
	}
}

// TestRegistryList tests listing drivers in priority order.
func TestRegistryList(t *testing.T) {
	r := NewRegistry()

	r.Register("low", 10, stubFactory("low"), nil)
	r.Register("high", 100, stubFactory("high"), nil)
	r.Register("mid", 50, stubFactory("mid"), nil)

	list := r.List()

	if len(list) != 3 {
		t.Fatalf("expected 3 drivers, got %d", len(list))
	}

	// Should be sorted by priority (highest first)
	if list[0] != "high" {
		t.Errorf("first should be high (priority 100), got %s", list[0])
	}
	if list[1] != "mid" {
		t.Errorf("second should be mid (priority 50), got %s", list[1])
	}
	if list[2] != "low" {
		t.Errorf("third should be low (priority 10), got %s", list[2])
	}
}

// TestRegistryAvailable tests filtering by availability.
func TestRegistryAvailable(t *testing.T) {
	r := NewRegistry()

	r.Register("available", 100, stubFactory("available"), func() bool { return true })
	r.Register("unavailable", 200, stubFactory("unavailable"), func() bool { return false })

	available := r.Available()

	if len(available) != 1 {
		t.Fatalf("expected 1 available driver, got %d", len(available))
	}

	if available[0] != "available" {
		t.Errorf("expected 'available', got %s", available[0])
	}
}

// TestRegistryOpen tests opening a specific driver by name.
func TestRegistryOpen(t *testing.T) {
	r := NewRegistry()

	r.Register("test", 50, stubFactory("test"), nil)

	d, err := r.Open("test")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if d.Name() != "test" {
		t.Errorf("Name = %s, want test", d.Name())
	}
}

// TestRegistryOpenNotFound tests the typed error for unknown names.
func TestRegistryOpenNotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Open("missing")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}

	var notFound *DriverNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %T, want *DriverNotFoundError", err)
	}
	if notFound.Name != "missing" {
		t.Errorf("Name = %s, want missing", notFound.Name)
	}
}

// TestRegistryOpenUnavailable tests the typed error for drivers whose
// probe fails on this system.
func TestRegistryOpenUnavailable(t *testing.T) {
	r := NewRegistry()

	r.Register("gpu", 100, stubFactory("gpu"), func() bool { return false })

	_, err := r.Open("gpu")
	if err == nil {
		t.Fatal("expected error for unavailable driver")
	}

	var unavailable *DriverUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %T, want *DriverUnavailableError", err)
	}
}

// TestRegistryOpenDefault tests auto-selection of the best driver.
func TestRegistryOpenDefault(t *testing.T) {
	r := NewRegistry()

	r.Register("soft", 10, stubFactory("soft"), nil)
	r.Register("vulkan", 100, stubFactory("vulkan"), nil)

	d, err := r.OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}

	if d.Name() != "vulkan" {
		t.Errorf("OpenDefault picked %s, want vulkan (priority 100)", d.Name())
	}
}

// TestRegistryOpenDefaultSkipsUnavailable tests that auto-selection
// falls through to lower-priority drivers when probes fail.
func TestRegistryOpenDefaultSkipsUnavailable(t *testing.T) {
	r := NewRegistry()

	r.Register("soft", 10, stubFactory("soft"), nil)
	r.Register("vulkan", 100, stubFactory("vulkan"), func() bool { return false })

	d, err := r.OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}

	if d.Name() != "soft" {
		t.Errorf("OpenDefault picked %s, want soft", d.Name())
	}
}

// TestRegistryOpenDefaultFallsThroughFactoryError tests that a driver
// whose factory fails does not block lower-priority drivers.
func TestRegistryOpenDefaultFallsThroughFactoryError(t *testing.T) {
	r := NewRegistry()

	r.Register("broken", 100, func() (Driver, error) {
		return nil, errors.New("probe ok but open failed")
	}, nil)
	r.Register("soft", 10, stubFactory("soft"), nil)

	d, err := r.OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault failed: %v", err)
	}

	if d.Name() != "soft" {
		t.Errorf("OpenDefault picked %s, want soft", d.Name())
	}
}

// TestRegistryOpenDefaultEmpty tests the sentinel for an empty registry.
func TestRegistryOpenDefaultEmpty(t *testing.T) {
	r := NewRegistry()

	_, err := r.OpenDefault()
	if !errors.Is(err, ErrNoDriverAvailable) {
		t.Errorf("err = %v, want ErrNoDriverAvailable", err)
	}
}
