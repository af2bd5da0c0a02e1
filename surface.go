package display

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/display/hal"
)

// Surface is the producer-facing display surface.
//
// A Surface owns a depth-2 swap chain and presents through a
// composition pipeline. It is created unconfigured; Configure sizes
// it and allocates its buffers, and may be called again to resize.
//
// Surface lifetime is reference counted, starting at one. Retain and
// Release pair up across owners; the final Release tears the surface
// down: the chain's buffers are released and the surface becomes
// unusable. Like the chain it wraps, a Surface serves one producer
// and is not internally synchronized.
type Surface struct {
	alloc     hal.Allocator
	comp      hal.Compositor
	presenter Presenter
	chain     *SwapChain

	width  int
	height int
	format PixelFormat
	usage  Usage

	configured bool
	closed     bool
	refs       atomic.Int32
}

// New creates an unconfigured surface on the given allocator and
// compositor. Both are required; options adjust construction.
func New(alloc hal.Allocator, comp hal.Compositor, opts ...SurfaceOption) (*Surface, error) {
	if alloc == nil {
		return nil, fmt.Errorf("display: nil allocator")
	}
	if comp == nil {
		return nil, fmt.Errorf("display: nil compositor")
	}

	o := defaultSurfaceOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Surface{
		alloc:     alloc,
		comp:      comp,
		presenter: o.presenter,
	}
	if s.presenter == nil {
		s.presenter = NewPipeline(comp)
	}
	s.chain = NewSwapChain(s.presenter)
	s.refs.Store(1)

	if o.listener != nil {
		comp.SetListener(o.listener)
	}
	if o.vsync {
		if err := comp.SetVSyncEnabled(true); err != nil {
			Logger().Warn("display: vsync enable failed", "err", err)
		}
	}

	return s, nil
}

// Configure sizes the surface and allocates both chain slots.
//
// All buffers are allocated before any slot is replaced, so a failed
// Configure leaves the previous configuration fully intact. On
// success the old slot buffers lose the chain's reference; a buffer
// still out with the producer survives until that holder releases it.
func (s *Surface) Configure(width, height int, format PixelFormat, usage Usage) error {
	if s.closed {
		return ErrSurfaceClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	var bufs [swapDepth]*GraphicsBuffer
	for i := range bufs {
		b, err := allocateBuffer(s.alloc, width, height, format, usage)
		if err != nil {
			for j := 0; j < i; j++ {
				bufs[j].Release()
			}
			return err
		}
		bufs[i] = b
	}

	s.chain.fill(bufs)
	s.width = width
	s.height = height
	s.format = format
	s.usage = usage
	s.configured = true

	Logger().Info("display: surface configured",
		"size", fmt.Sprintf("%dx%d", width, height),
		"format", format,
		"stride", bufs[0].Stride())
	return nil
}

// Acquire hands out a free buffer and the release fence from its
// last trip through the compositor. See SwapChain.Acquire.
func (s *Surface) Acquire() (*GraphicsBuffer, Fence, error) {
	if s.closed {
		return nil, nil, ErrSurfaceClosed
	}
	return s.chain.Acquire()
}

// Submit presents an acquired buffer. renderDone, when non-nil,
// gates the compositor on the producer's rendering and transfers to
// the pipeline. See SwapChain.Submit.
//
// A buffer acquired before a reconfigure no longer matches the
// surface and is rejected with ErrBufferMismatch; the caller keeps
// it and its fence. On any error nothing has been consumed.
func (s *Surface) Submit(buf *GraphicsBuffer, renderDone Fence) error {
	if s.closed {
		return ErrSurfaceClosed
	}
	if !s.configured {
		return ErrNotConfigured
	}
	if !s.matches(buf) {
		return ErrBufferMismatch
	}
	return s.chain.Submit(buf, renderDone)
}

// Cancel returns an acquired buffer without presenting it. The fence
// is closed by the chain. Stale buffers are rejected the same way as
// in Submit. See SwapChain.Cancel.
func (s *Surface) Cancel(buf *GraphicsBuffer, fence Fence) error {
	if s.closed {
		return ErrSurfaceClosed
	}
	if !s.matches(buf) {
		return ErrBufferMismatch
	}
	return s.chain.Cancel(buf, fence)
}

// matches reports whether buf fits the current configuration.
func (s *Surface) matches(buf *GraphicsBuffer) bool {
	return buf != nil &&
		buf.Width() == s.width &&
		buf.Height() == s.height &&
		buf.Format() == s.format
}

// Width returns the configured width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the configured height in pixels.
func (s *Surface) Height() int { return s.height }

// Format returns the configured pixel format.
func (s *Surface) Format() PixelFormat { return s.format }

// ConsumerUsage returns the usage bits the chain's buffers carry.
func (s *Surface) ConsumerUsage() Usage { return s.usage }

// TransformHint returns the rotation producers should pre-apply.
// The panel is scanned out unrotated, so this is always none.
func (s *Surface) TransformHint() hal.Transform { return hal.TransformNone }

// BufferAge returns the age of the most recently acquired buffer in
// frames: 0 for a never-presented buffer, 2 once it has been on
// screen (depth-2 round robin).
func (s *Surface) BufferAge() int { return s.chain.BufferAge() }

// Retain adds a surface reference.
func (s *Surface) Retain() {
	s.refs.Add(1)
}

// Release drops a surface reference. The zero transition destroys
// the surface: chain buffers are released, recorded fences closed,
// and every later operation fails with ErrSurfaceClosed. Buffers the
// producer still holds survive via their own refcounts.
func (s *Surface) Release() {
	n := s.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("display: Surface over-released")
	}

	s.chain.drain()
	s.configured = false
	s.closed = true
	Logger().Info("display: surface destroyed")
}
