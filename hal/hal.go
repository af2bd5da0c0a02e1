// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hal defines the hardware abstraction layer for display:
// the buffer allocator and display compositor interfaces, the layer
// list passed across the prepare/commit boundary, and the driver
// registry through which concrete implementations plug in.
//
// The interfaces mirror the split found on real scanout hardware.
// An Allocator hands out opaque buffer handles sized for the panel,
// and a Compositor consumes layer lists in a two-phase protocol:
// Prepare lets the device claim layers it can scan out directly,
// Commit latches the frame and hands back synchronization fences.
//
// Drivers register themselves in an init function:
//
//	func init() {
//	    hal.Register("soft", 10, soft.Open, nil)
//	}
//
// Applications either open a specific driver with hal.Open("soft") or
// take the best available one with hal.OpenDefault().
package hal

// PixelFormat identifies the memory layout of a buffer's pixels.
// The values match the conventional scanout format numbering so that
// handles can cross a binary driver boundary unchanged.
type PixelFormat uint32

// Supported pixel formats.
const (
	FormatRGBA8888 PixelFormat = 1
	FormatRGBX8888 PixelFormat = 2
	FormatRGB888   PixelFormat = 3
	FormatRGB565   PixelFormat = 4
	FormatBGRA8888 PixelFormat = 5
)

// BytesPerPixel returns the per-pixel size of the format in bytes.
// Unknown formats report 0.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888, FormatRGBX8888, FormatBGRA8888:
		return 4
	case FormatRGB888:
		return 3
	case FormatRGB565:
		return 2
	default:
		return 0
	}
}

// String returns the format name for logs and errors.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatRGBX8888:
		return "RGBX8888"
	case FormatRGB888:
		return "RGB888"
	case FormatRGB565:
		return "RGB565"
	case FormatBGRA8888:
		return "BGRA8888"
	default:
		return "unknown"
	}
}

// Usage is a bitset describing how a buffer will be used. Allocators
// pick placement and stride from it. The bit values match the
// conventional gralloc usage flags.
type Usage uint32

// Usage bits.
const (
	// UsageHWTexture marks the buffer as a GPU texture source.
	UsageHWTexture Usage = 0x100

	// UsageHWRender marks the buffer as a GPU render target.
	UsageHWRender Usage = 0x200

	// UsageHW2D marks the buffer for the 2D block copier.
	UsageHW2D Usage = 0x400

	// UsageHWComposer marks the buffer as compositor input.
	UsageHWComposer Usage = 0x800

	// UsageHWFramebuffer marks the buffer as scanout memory.
	UsageHWFramebuffer Usage = 0x1000
)

// Has reports whether all bits of u2 are set in u.
func (u Usage) Has(u2 Usage) bool { return u&u2 == u2 }

// BufferHandle is an opaque, driver-owned buffer identity. Only the
// driver that allocated a handle may interpret it; everyone else
// passes it around untouched. Handles stay valid until Free.
type BufferHandle any

// Allocator hands out buffer storage for a surface. Stride is chosen
// by the allocator (in pixels, >= width) and must be honored by
// producers when addressing rows.
type Allocator interface {
	// Allocate returns a handle for a width x height buffer of the
	// given format, placed according to usage.
	Allocate(width, height int, format PixelFormat, usage Usage) (handle BufferHandle, stride int, err error)

	// Free releases a handle obtained from Allocate. The handle must
	// not be used afterwards.
	Free(handle BufferHandle) error
}

// Compositor drives the display from layer lists.
//
// A frame is presented by filling a LayerList, calling Prepare so the
// device can mark which layers it will handle, then Commit to latch
// the frame. Commit populates the list's RetireFence and each
// non-skipped layer's ReleaseFence; those fences transfer to the
// caller, which must close every one of them exactly once.
type Compositor interface {
	// Prepare negotiates layer assignment for the upcoming commit.
	// The device may rewrite each layer's Compositing field.
	Prepare(list *LayerList) error

	// Commit latches the prepared list onto the display.
	Commit(list *LayerList) error

	// SetListener installs the display event listener. Passing nil
	// removes the current listener. Implementations deliver a
	// synthetic Hotplug(true) for the already-connected panel so
	// late registrants observe the current state.
	SetListener(l DisplayListener)

	// SetVSyncEnabled starts or stops vsync callbacks.
	SetVSyncEnabled(enabled bool) error

	// Close shuts the compositor down and releases device resources.
	Close() error
}

// DisplayListener receives asynchronous display events. Callbacks
// arrive on a driver-owned goroutine; implementations must not call
// back into the compositor from them.
type DisplayListener interface {
	// Hotplug reports panel connect and disconnect.
	Hotplug(connected bool)

	// VSync reports the timestamp of a vertical sync pulse.
	VSync(timestampNanos int64)

	// Invalidate asks the client to repaint the current frame.
	Invalidate()
}

// Driver bundles the allocator and compositor halves of one device.
type Driver interface {
	// Name returns the registry name the driver was opened under.
	Name() string

	// Allocator returns the buffer allocator half.
	Allocator() Allocator

	// Compositor returns the display compositor half.
	Compositor() Compositor

	// Close releases the device. The allocator and compositor must
	// not be used afterwards.
	Close() error
}
