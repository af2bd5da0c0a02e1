package display

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/display/hal"
)

// Test doubles shared by the package tests. They implement the hal
// interfaces with recorded calls and injectable failures.

// testHandle is the opaque handle type handed out by testAllocator.
type testHandle int

// testFence counts Wait and Close calls and enforces the
// close-exactly-once contract.
type testFence struct {
	waits    int
	closes   int
	closeErr error
}

func (f *testFence) Wait(ctx context.Context) error {
	f.waits++
	return nil
}

func (f *testFence) Close() error {
	f.closes++
	if f.closes > 1 {
		return hal.ErrFenceClosed
	}
	return f.closeErr
}

var _ hal.Fence = (*testFence)(nil)

// testAllocator hands out sequential testHandle values and records
// every Free. strideAlign rounds stride up to a multiple when set.
// failAt makes the n-th Allocate call (1-based) fail.
type testAllocator struct {
	strideAlign int
	failAt      int
	freeErr     error

	calls int
	live  map[hal.BufferHandle]bool
	freed []hal.BufferHandle
}

func newTestAllocator() *testAllocator {
	return &testAllocator{live: make(map[hal.BufferHandle]bool)}
}

func (a *testAllocator) Allocate(width, height int, format hal.PixelFormat, usage hal.Usage) (hal.BufferHandle, int, error) {
	a.calls++
	if a.failAt != 0 && a.calls == a.failAt {
		return nil, 0, errors.New("allocation failed")
	}

	stride := width
	if a.strideAlign > 1 {
		stride = (width + a.strideAlign - 1) / a.strideAlign * a.strideAlign
	}

	h := testHandle(a.calls)
	a.live[h] = true
	return h, stride, nil
}

func (a *testAllocator) Free(handle hal.BufferHandle) error {
	if !a.live[handle] {
		return errors.New("unknown handle")
	}
	delete(a.live, handle)
	a.freed = append(a.freed, handle)
	return a.freeErr
}

var _ hal.Allocator = (*testAllocator)(nil)

// testCompositor records prepare/commit traffic. Commit snapshots the
// layer list, captures acquire fences, and hands out the configured
// retire and release fences.
type testCompositor struct {
	prepareErr error
	commitErr  error
	vsyncErr   error

	retire  hal.Fence
	release hal.Fence

	prepares   int
	commits    int
	lastLayers []hal.Layer
	lastFlags  hal.ListFlags
	acquired   []hal.Fence

	listener hal.DisplayListener
	vsyncOn  bool
	closed   bool
}

func (c *testCompositor) Prepare(list *hal.LayerList) error {
	c.prepares++
	return c.prepareErr
}

func (c *testCompositor) Commit(list *hal.LayerList) error {
	c.commits++
	c.lastLayers = append([]hal.Layer(nil), list.Layers...)
	c.lastFlags = list.Flags

	list.RetireFence = c.retire
	for i := range list.Layers {
		if list.Layers[i].Skipped() {
			continue
		}
		c.acquired = append(c.acquired, list.Layers[i].AcquireFence)
		list.Layers[i].ReleaseFence = c.release
	}
	return c.commitErr
}

func (c *testCompositor) SetListener(l hal.DisplayListener) { c.listener = l }

func (c *testCompositor) SetVSyncEnabled(enabled bool) error {
	if c.vsyncErr != nil {
		return c.vsyncErr
	}
	c.vsyncOn = enabled
	return nil
}

func (c *testCompositor) Close() error {
	c.closed = true
	return nil
}

var _ hal.Compositor = (*testCompositor)(nil)

// recordingPresenter captures Present calls without touching a
// compositor. releases is consumed front to back, one per call.
type recordingPresenter struct {
	err      error
	releases []Fence

	bufs   []*GraphicsBuffer
	fences []Fence
}

func (p *recordingPresenter) Present(buf *GraphicsBuffer, renderDone Fence) (Fence, error) {
	p.bufs = append(p.bufs, buf)
	p.fences = append(p.fences, renderDone)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.releases) == 0 {
		return nil, nil
	}
	r := p.releases[0]
	p.releases = p.releases[1:]
	return r, nil
}

var _ Presenter = (*recordingPresenter)(nil)

// mustAllocate builds a chain-ready buffer pair on alloc.
func mustAllocate(t *testing.T, alloc hal.Allocator, width, height int) [swapDepth]*GraphicsBuffer {
	t.Helper()
	var bufs [swapDepth]*GraphicsBuffer
	for i := range bufs {
		b, err := allocateBuffer(alloc, width, height, FormatRGBA8888, UsageHWRender)
		if err != nil {
			t.Fatalf("allocateBuffer() error = %v", err)
		}
		bufs[i] = b
	}
	return bufs
}
