// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package soft implements a pure software display driver.
//
// Buffers are plain byte slabs, and the compositor blends layer
// lists into an in-memory framebuffer using CPU blits. Composition
// finishes synchronously inside Commit, so every fence the driver
// hands out is born signaled. A ticker stands in for the panel's
// vsync line.
//
// The driver registers itself under the name "soft":
//
//	import _ "github.com/gogpu/display/hal/soft"
//
//	d, err := hal.Open("soft")
//
// It has no hardware requirements and is always available, which
// makes it the fallback for hal.OpenDefault and the device of choice
// for tests.
package soft

import (
	"github.com/gogpu/display/hal"
)

// DriverName is the registry name of the software driver.
const DriverName = "soft"

func init() {
	hal.Register(DriverName, 10, func() (hal.Driver, error) {
		return New()
	}, nil)
}

// Driver bundles the software allocator and compositor.
type Driver struct {
	alloc *Allocator
	comp  *Compositor
}

var _ hal.Driver = (*Driver)(nil)

// Option adjusts driver construction.
type Option func(*options)

type options struct {
	width, height int
	refreshRate   float64
}

func defaultOptions() options {
	return options{
		width:       480,
		height:      854,
		refreshRate: 60,
	}
}

// WithSize sets the emulated panel size. The default is 480x854.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithRefreshRate sets the vsync rate in Hz. The default is 60.
func WithRefreshRate(hz float64) Option {
	return func(o *options) {
		o.refreshRate = hz
	}
}

// New creates a software driver instance.
func New(opts ...Option) (*Driver, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, errBadSize(o.width, o.height)
	}
	if o.refreshRate <= 0 {
		o.refreshRate = 60
	}

	return &Driver{
		alloc: NewAllocator(),
		comp:  newCompositor(o.width, o.height, o.refreshRate),
	}, nil
}

// Name returns the registry name.
func (d *Driver) Name() string { return DriverName }

// Allocator returns the slab allocator half.
func (d *Driver) Allocator() hal.Allocator { return d.alloc }

// Compositor returns the CPU compositor half.
func (d *Driver) Compositor() hal.Compositor { return d.comp }

// Close stops the compositor. Outstanding buffers stay valid; they
// are plain memory and die with their last reference.
func (d *Driver) Close() error {
	return d.comp.Close()
}
