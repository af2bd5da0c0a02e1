// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/display/hal"
)

// Errors returned by the software allocator.
var (
	// ErrUnknownHandle is returned by Free for a handle this
	// allocator did not produce or already freed.
	ErrUnknownHandle = errors.New("soft: unknown buffer handle")

	// ErrBadFormat is returned for formats without a defined pixel
	// size.
	ErrBadFormat = errors.New("soft: unsupported pixel format")
)

func errBadSize(width, height int) error {
	return fmt.Errorf("soft: invalid size %dx%d", width, height)
}

// strideAlign rounds row pitches up to this many pixels, matching
// the alignment real scanout hardware tends to demand.
const strideAlign = 16

// Buffer is the software buffer handle. The compositor reads Pix
// directly, and producers write into it between acquire and submit.
//
// Pix holds Height rows of Stride pixels each; only the leading
// Width pixels of a row are visible. Stride is in pixels, so a row
// starts at byte offset y * Stride * Format.BytesPerPixel().
type Buffer struct {
	Width  int
	Height int
	Stride int
	Format hal.PixelFormat
	Pix    []byte
}

// rowBytes returns the byte pitch of one row.
func (b *Buffer) rowBytes() int {
	return b.Stride * b.Format.BytesPerPixel()
}

// Allocator hands out slab-backed buffers. Freed slabs return to a
// pool so a steady reconfigure-free workload allocates twice and
// never again.
type Allocator struct {
	mu   sync.Mutex
	live map[*Buffer]bool
	pool slabPool
}

var _ hal.Allocator = (*Allocator)(nil)

// NewAllocator creates an empty software allocator.
func NewAllocator() *Allocator {
	return &Allocator{live: make(map[*Buffer]bool)}
}

// Allocate returns a *Buffer handle with a 16-pixel aligned stride.
func (a *Allocator) Allocate(width, height int, format hal.PixelFormat, usage hal.Usage) (hal.BufferHandle, int, error) {
	if width <= 0 || height <= 0 {
		return nil, 0, errBadSize(width, height)
	}
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadFormat, format)
	}

	stride := (width + strideAlign - 1) / strideAlign * strideAlign
	size := stride * height * bpp

	buf := &Buffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Pix:    a.pool.get(size),
	}

	a.mu.Lock()
	a.live[buf] = true
	a.mu.Unlock()
	return buf, stride, nil
}

// Free returns the handle's slab to the pool.
func (a *Allocator) Free(handle hal.BufferHandle) error {
	buf, ok := handle.(*Buffer)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnknownHandle, handle)
	}

	a.mu.Lock()
	known := a.live[buf]
	delete(a.live, buf)
	a.mu.Unlock()
	if !known {
		return ErrUnknownHandle
	}

	a.pool.put(buf.Pix)
	buf.Pix = nil
	return nil
}

// liveCount returns the number of outstanding handles. Test hook.
func (a *Allocator) liveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// slabPool recycles pixel slabs across allocations. Slabs whose
// capacity no longer fits the requested size are dropped on the
// floor for the GC.
type slabPool struct {
	pool sync.Pool
}

func (p *slabPool) get(size int) []byte {
	if v := p.pool.Get(); v != nil {
		slab := v.([]byte)
		if cap(slab) >= size {
			slab = slab[:size]
			clear(slab)
			return slab
		}
	}
	return make([]byte, size)
}

func (p *slabPool) put(slab []byte) {
	if slab == nil {
		return
	}
	p.pool.Put(slab[:0]) //nolint:staticcheck // SA6002: slice header allocation is fine here
}
