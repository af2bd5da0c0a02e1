package display

// swapDepth is the number of chain slots. The chain is a strict
// double buffer: one frame on screen, one with the producer.
const swapDepth = 2

// Presenter pushes one frame at the compositor. Submit calls it
// synchronously with the buffer being presented and the producer's
// render-complete fence; it returns the compositor's release fence
// for that buffer (nil when the frame was consumed immediately).
type Presenter interface {
	Present(buf *GraphicsBuffer, renderDone Fence) (release Fence, err error)
}

// SwapChain owns the two buffer slots of a surface and the fence
// bookkeeping that moves buffers between producer and compositor.
//
// Each slot is either empty or holds a buffer, and carries the
// release fence recorded when that buffer was last presented (nil
// when there is none). lastPresented remembers which slot went to
// the compositor most recently; Acquire skips it so the frame still
// on screen is never handed back to the producer.
//
// SwapChain is single-producer and not internally synchronized.
type SwapChain struct {
	presenter Presenter

	bufs   [swapDepth]*GraphicsBuffer
	fences [swapDepth]Fence

	// lastPresented is the slot index of the most recent Submit,
	// or -1 before the first one.
	lastPresented int

	// presented marks slots whose buffer has been on screen at least
	// once; lastAge is the age reported for the most recent Acquire.
	// With depth 2 a previously presented buffer comes back exactly
	// two frames later, so its age is always 2.
	presented [swapDepth]bool
	lastAge   int
}

// NewSwapChain creates an empty chain presenting through p.
func NewSwapChain(p Presenter) *SwapChain {
	return &SwapChain{
		presenter:     p,
		lastPresented: -1,
	}
}

// Acquire hands a free buffer to the producer.
//
// Slots are scanned in fixed index order, skipping the last-presented
// one. The first filled slot wins: its buffer and recorded release
// fence are returned, the slot becomes empty and its fence cell is
// reset. The returned fence (often nil) belongs to the producer, who
// may wait on it, pass it to the GPU, or close it.
func (c *SwapChain) Acquire() (*GraphicsBuffer, Fence, error) {
	for i := 0; i < swapDepth; i++ {
		if i == c.lastPresented || c.bufs[i] == nil {
			continue
		}

		buf := c.bufs[i]
		fence := c.fences[i]
		c.bufs[i] = nil
		c.fences[i] = nil

		c.lastAge = 0
		if c.presented[i] {
			c.lastAge = swapDepth
		}

		Logger().Debug("display: buffer acquired", "slot", i, "fenced", fence != nil)
		return buf, fence, nil
	}
	return nil, nil, ErrNoBufferAvailable
}

// BufferAge returns how many frames ago the most recently acquired
// buffer was on screen: 0 for a buffer never presented, otherwise the
// chain depth.
func (c *SwapChain) BufferAge() int { return c.lastAge }

// Submit returns buf to the chain and presents it.
//
// The first empty slot takes the buffer and becomes the
// last-presented slot. The presenter runs synchronously; its release
// fence is recorded in the slot so the next Acquire of this buffer
// hands it out. A presenter failure drops the frame: it is logged,
// the slot keeps the buffer with no fence, and Submit reports
// success so the producer keeps animating.
func (c *SwapChain) Submit(buf *GraphicsBuffer, renderDone Fence) error {
	slot := c.emptySlot()
	if slot < 0 {
		return ErrNoSlotAvailable
	}

	c.bufs[slot] = buf
	c.fences[slot] = nil
	c.lastPresented = slot
	c.presented[slot] = true

	release, err := c.presenter.Present(buf, renderDone)
	if err != nil {
		Logger().Warn("display: frame dropped", "slot", slot, "err", err)
		return nil
	}

	c.fences[slot] = release
	Logger().Debug("display: buffer presented", "slot", slot, "fenced", release != nil)
	return nil
}

// Cancel returns an acquired buffer without presenting it.
//
// The first empty slot takes the buffer back with no fence. The
// producer's fence is not forwarded anywhere, so the chain closes it
// here. lastPresented is untouched: the frame on screen has not
// changed.
func (c *SwapChain) Cancel(buf *GraphicsBuffer, fence Fence) error {
	slot := c.emptySlot()
	if slot < 0 {
		return ErrNoSlotAvailable
	}

	c.bufs[slot] = buf
	c.fences[slot] = nil
	closeFence(fence, "cancel")

	Logger().Debug("display: buffer canceled", "slot", slot)
	return nil
}

// emptySlot returns the lowest empty slot index, or -1.
func (c *SwapChain) emptySlot() int {
	for i := 0; i < swapDepth; i++ {
		if c.bufs[i] == nil {
			return i
		}
	}
	return -1
}

// fill replaces the chain contents with freshly allocated buffers.
// Previous occupants are released (chain reference only) and their
// recorded fences closed; in-flight buffers are unaffected because
// the chain no longer holds them. lastPresented resets: nothing from
// the new set has been on screen.
func (c *SwapChain) fill(bufs [swapDepth]*GraphicsBuffer) {
	for i := 0; i < swapDepth; i++ {
		if c.bufs[i] != nil {
			closeFence(c.fences[i], "refill")
			c.bufs[i].Release()
		}
		c.bufs[i] = bufs[i]
		c.fences[i] = nil
		c.presented[i] = false
	}
	c.lastPresented = -1
	c.lastAge = 0
}

// drain empties the chain, releasing held buffers and closing their
// fences. Used at surface teardown.
func (c *SwapChain) drain() {
	var empty [swapDepth]*GraphicsBuffer
	c.fill(empty)
}

// slotOf returns the slot currently holding buf, or -1. Test hook.
func (c *SwapChain) slotOf(buf *GraphicsBuffer) int {
	for i := 0; i < swapDepth; i++ {
		if c.bufs[i] == buf {
			return i
		}
	}
	return -1
}
