// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package vk implements a display driver that composes frames with
// Vulkan compute through gogpu/wgpu.
//
// Layer buffers live twice: a CPU slab the producer writes, and a
// device storage buffer the compositor uploads into at commit. Each
// commit dispatches one compose pass per visible layer into a
// storage-buffer framebuffer and submits the batch behind a device
// fence; the retire and release fences handed back are views of that
// fence, so waiting on them really waits for the GPU.
//
// The driver registers itself under the name "vulkan" with a higher
// priority than the software driver:
//
//	import _ "github.com/gogpu/display/hal/vk"
//
//	d, err := hal.OpenDefault()
package vk

import (
	"fmt"

	"github.com/gogpu/gputypes"
	wgpu "github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan backend

	"github.com/gogpu/display"
	"github.com/gogpu/display/hal"
)

// DriverName is the registry name of the Vulkan driver.
const DriverName = "vulkan"

func init() {
	hal.Register(DriverName, 100, func() (hal.Driver, error) {
		return New()
	}, Available)
}

// Available reports whether the Vulkan backend is present. It is a
// cheap probe; New still performs the full device open and may fail.
func Available() bool {
	_, ok := wgpu.GetBackend(gputypes.BackendVulkan)
	return ok
}

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

// WithSize sets the panel size. The default is 480x854.
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

// Driver bundles the device-backed allocator and compositor.
type Driver struct {
	instance wgpu.Instance
	device   wgpu.Device
	queue    wgpu.Queue

	alloc *Allocator
	comp  *Compositor
}

var _ hal.Driver = (*Driver)(nil)

// New opens the Vulkan device and builds the compose pipeline.
func New(opts ...Option) (*Driver, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("vk: invalid size %dx%d", o.width, o.height)
	}
	if o.refreshRate <= 0 {
		o.refreshRate = 60
	}

	backend, ok := wgpu.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vk: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&wgpu.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("vk: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("vk: no adapters found")
	}

	var selected *wgpu.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("vk: open device: %w", err)
	}

	d := &Driver{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}
	d.alloc = newAllocator(d.device, d.queue)
	d.comp, err = newCompositor(d.device, d.queue, o.width, o.height, o.refreshRate)
	if err != nil {
		d.device.Destroy()
		instance.Destroy()
		return nil, err
	}

	display.Logger().Info("vk: driver opened",
		"adapter", selected.Info.Name,
		"panel", fmt.Sprintf("%dx%d", o.width, o.height))
	return d, nil
}

// Name returns the registry name.
func (d *Driver) Name() string { return DriverName }

// Allocator returns the device buffer allocator.
func (d *Driver) Allocator() hal.Allocator { return d.alloc }

// Compositor returns the compute compositor.
func (d *Driver) Compositor() hal.Compositor { return d.comp }

// Close drains in-flight work and releases the device. The device
// halves of buffers still outstanding are destroyed here; their CPU
// slabs stay readable and Free on them stays legal, so producers can
// wind down in any order.
func (d *Driver) Close() error {
	err := d.comp.Close()
	d.alloc.close()
	d.device.Destroy()
	d.instance.Destroy()
	return err
}
