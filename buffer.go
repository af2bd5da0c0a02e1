package display

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/display/hal"
)

// GraphicsBuffer is one allocator-backed scanout buffer.
//
// Geometry and format are fixed at allocation. Stride is chosen by
// the allocator and is in pixels; producers must address rows as
// y*Stride()+x, never y*Width()+x.
//
// GraphicsBuffer is externally reference counted. A new buffer starts
// with one reference owned by its creator. Retain adds a reference,
// Release drops one; the buffer's storage is returned to the
// allocator exactly when the count reaches zero. The count is what
// lets a buffer outlive its swap-chain slot: the chain drops its
// reference on reconfigure, but a producer still rendering into the
// buffer keeps it alive.
type GraphicsBuffer struct {
	width  int
	height int
	stride int
	format PixelFormat
	usage  Usage

	handle hal.BufferHandle
	alloc  hal.Allocator

	refs atomic.Int32
}

// allocateBuffer obtains storage from alloc and wraps it with an
// initial reference count of one.
func allocateBuffer(alloc hal.Allocator, width, height int, format PixelFormat, usage Usage) (*GraphicsBuffer, error) {
	handle, stride, err := alloc.Allocate(width, height, format, usage)
	if err != nil {
		return nil, fmt.Errorf("display: buffer allocation %dx%d %v: %w", width, height, format, err)
	}

	b := &GraphicsBuffer{
		width:  width,
		height: height,
		stride: stride,
		format: format,
		usage:  usage,
		handle: handle,
		alloc:  alloc,
	}
	b.refs.Store(1)
	return b, nil
}

// Width returns the buffer width in pixels.
func (b *GraphicsBuffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *GraphicsBuffer) Height() int { return b.height }

// Stride returns the allocator-chosen row pitch in pixels.
func (b *GraphicsBuffer) Stride() int { return b.stride }

// Format returns the pixel format.
func (b *GraphicsBuffer) Format() PixelFormat { return b.format }

// Usage returns the usage bits the buffer was allocated with.
func (b *GraphicsBuffer) Usage() Usage { return b.usage }

// Handle returns the opaque driver handle. The handle stays valid as
// long as the caller holds a reference.
func (b *GraphicsBuffer) Handle() hal.BufferHandle { return b.handle }

// Retain adds a reference.
func (b *GraphicsBuffer) Retain() {
	b.refs.Add(1)
}

// Release drops a reference. The zero transition is the single
// teardown point: it frees the handle through the allocator. Release
// after the count already hit zero is a caller bug and panics.
func (b *GraphicsBuffer) Release() {
	n := b.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("display: GraphicsBuffer over-released")
	}

	if err := b.alloc.Free(b.handle); err != nil {
		Logger().Warn("display: buffer free failed",
			"size", fmt.Sprintf("%dx%d", b.width, b.height),
			"format", b.format,
			"err", err)
	}
	b.handle = nil
}

// refCount returns the current reference count. Test hook.
func (b *GraphicsBuffer) refCount() int32 { return b.refs.Load() }
