package gogpu

import (
	"context"
	"sync"

	"github.com/gogpu/display/hal"
)

// hostFence is born signaled. Commit copies the frame before handing
// fences back, so there is nothing left to wait for.
type hostFence struct {
	mu     sync.Mutex
	closed bool
}

var _ hal.Fence = (*hostFence)(nil)

func newHostFence() *hostFence { return &hostFence{} }

func (f *hostFence) Wait(ctx context.Context) error { return ctx.Err() }

func (f *hostFence) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return hal.ErrFenceClosed
	}
	f.closed = true
	return nil
}
