// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	wgpu "github.com/gogpu/wgpu/hal"

	"github.com/gogpu/display/hal"
)

// Allocation errors.
var (
	// ErrUnknownHandle is returned by Free for handles this
	// allocator did not produce or already freed.
	ErrUnknownHandle = errors.New("vk: unknown buffer handle")

	// ErrBadFormat is returned for pixel formats the compose shader
	// cannot address. The shader reads 32-bit words, so only the
	// 4-byte-per-pixel formats are allocatable here.
	ErrBadFormat = errors.New("vk: unsupported pixel format")
)

// strideAlign is the row alignment in pixels. GPU copy paths like
// wider rows than the software driver's 16.
const strideAlign = 64

// Buffer is a graphics buffer with a CPU slab and a device storage
// copy. Producers write Pix; the compositor uploads it at commit.
type Buffer struct {
	Width  int
	Height int
	Stride int // pixels per row, >= Width
	Format hal.PixelFormat

	Pix []byte

	gpu  wgpu.Buffer
	size uint64
}

// Allocator creates device-backed buffers.
type Allocator struct {
	device wgpu.Device
	queue  wgpu.Queue

	mu     sync.Mutex
	live   map[*Buffer]bool
	closed bool
}

var _ hal.Allocator = (*Allocator)(nil)

func newAllocator(device wgpu.Device, queue wgpu.Queue) *Allocator {
	return &Allocator{
		device: device,
		queue:  queue,
		live:   make(map[*Buffer]bool),
	}
}

// Allocate creates a buffer of the given geometry. Only 4-byte pixel
// formats are supported; RGB888 and RGB565 return ErrBadFormat.
func (a *Allocator) Allocate(width, height int, format hal.PixelFormat, usage hal.Usage) (hal.BufferHandle, int, error) {
	if width <= 0 || height <= 0 {
		return nil, 0, fmt.Errorf("vk: invalid buffer size %dx%d", width, height)
	}
	switch format {
	case hal.FormatRGBA8888, hal.FormatRGBX8888, hal.FormatBGRA8888:
	default:
		return nil, 0, fmt.Errorf("%w: %v", ErrBadFormat, format)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, 0, fmt.Errorf("vk: allocator closed")
	}

	stride := (width + strideAlign - 1) &^ (strideAlign - 1)
	size := uint64(stride) * uint64(height) * 4

	gpu, err := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "vk-layer",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("vk: create layer buffer: %w", err)
	}

	buf := &Buffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Pix:    make([]byte, size),
		gpu:    gpu,
		size:   size,
	}
	a.live[buf] = true
	return buf, stride, nil
}

// Free releases a buffer. The handle must come from this allocator.
func (a *Allocator) Free(handle hal.BufferHandle) error {
	buf, ok := handle.(*Buffer)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnknownHandle, handle)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.live[buf] {
		return ErrUnknownHandle
	}
	delete(a.live, buf)

	if buf.gpu != nil {
		a.device.DestroyBuffer(buf.gpu)
		buf.gpu = nil
	}
	buf.Pix = nil
	return nil
}

// close destroys the device half of every live buffer ahead of device
// teardown. Free on those handles afterwards only drops bookkeeping.
func (a *Allocator) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for buf := range a.live {
		if buf.gpu != nil {
			a.device.DestroyBuffer(buf.gpu)
			buf.gpu = nil
		}
	}
}

// liveCount reports outstanding buffers. Test hook.
func (a *Allocator) liveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}
