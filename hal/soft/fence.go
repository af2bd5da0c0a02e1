package soft

import (
	"context"
	"sync"

	"github.com/gogpu/display/hal"
)

// fence is a pre-signaled fence. Software composition finishes
// before Commit returns, so the completion point it denotes is
// always in the past; only the close-once bookkeeping is real.
type fence struct {
	mu     sync.Mutex
	closed bool
}

var _ hal.Fence = (*fence)(nil)

func newFence() *fence { return &fence{} }

// Wait returns immediately: the work already happened.
func (f *fence) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Close releases the fence. Second and later calls return
// hal.ErrFenceClosed.
func (f *fence) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return hal.ErrFenceClosed
	}
	f.closed = true
	return nil
}
