// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/display"
	"github.com/gogpu/display/hal"
	"github.com/gogpu/display/hal/soft"
)

// Common errors returned by the host compositor.
var (
	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("gogpu: nil DeviceProvider")

	// ErrClosed is returned by operations on a closed compositor.
	ErrClosed = errors.New("gogpu: compositor closed")

	// ErrNoCreator is returned when the host renderer cannot create
	// textures.
	ErrNoCreator = errors.New("gogpu: host renderer cannot create textures")
)

// TextureCreator creates host textures from RGBA pixel data. The
// host's renderer satisfies it.
type TextureCreator interface {
	NewTextureFromRGBA(width, height int, data []byte) (any, error)
}

// TextureDrawer is the host draw surface handed to RenderTo. A
// gogpu.Context satisfies it.
type TextureDrawer interface {
	DrawTexture(tex any, x, y float32) error
	Renderer() any
}

// textureDestroyer matches the host texture's Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// Driver bundles the software allocator with the host compositor. It
// is constructed directly, never through the registry: the device
// objects come from the embedding application.
type Driver struct {
	alloc *soft.Allocator
	comp  *Compositor
}

var _ hal.Driver = (*Driver)(nil)

// New creates a host-presented driver for the given panel size.
func New(provider gpucontext.DeviceProvider, width, height int) (*Driver, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gogpu: invalid size %dx%d", width, height)
	}
	return &Driver{
		alloc: soft.NewAllocator(),
		comp:  newCompositor(provider, width, height),
	}, nil
}

// Name returns the driver name.
func (d *Driver) Name() string { return "gogpu-host" }

// Allocator returns the slab allocator backing producer buffers.
func (d *Driver) Allocator() hal.Allocator { return d.alloc }

// Compositor returns the host compositor.
func (d *Driver) Compositor() hal.Compositor { return d.comp }

// Close releases the host texture. Outstanding buffers remain valid
// through the allocator.
func (d *Driver) Close() error { return d.comp.Close() }

// Compositor stages committed frames and presents them through the
// host's draw surface. Commit runs on the producer's goroutine,
// RenderTo on the host's; the staging image moves frames between
// them.
type Compositor struct {
	provider gpucontext.DeviceProvider
	width    int
	height   int
	bgra     bool

	mu          sync.Mutex
	staged      []byte
	stagedValid bool
	tex         any
	frames      uint64
	listener    hal.DisplayListener
	vsyncOn     bool
	closed      bool
}

var _ hal.Compositor = (*Compositor)(nil)

func newCompositor(provider gpucontext.DeviceProvider, width, height int) *Compositor {
	return &Compositor{
		provider: provider,
		width:    width,
		height:   height,
		bgra:     provider.SurfaceFormat() == gputypes.TextureFormatBGRA8Unorm,
	}
}

// Prepare leaves every layer assignment untouched. The host draws the
// framebuffer target only; there is no overlay hardware to claim
// layers for.
func (c *Compositor) Prepare(list *hal.LayerList) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Commit copies the framebuffer target's pixels into the staging
// image and signals the fences. The copy decouples the producer from
// the host's draw cadence, so the retire and release fences are
// already signaled when they are handed back.
func (c *Compositor) Commit(list *hal.LayerList) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	for i := range list.Layers {
		l := &list.Layers[i]
		if l.Skipped() || l.Compositing != hal.CompositionFramebufferTarget {
			continue
		}
		buf, ok := l.Handle.(*soft.Buffer)
		if !ok {
			return fmt.Errorf("gogpu: foreign buffer handle %T", l.Handle)
		}
		c.consumeAcquire(l)
		c.stage(buf)
		l.ReleaseFence = newHostFence()
	}

	list.RetireFence = newHostFence()
	c.frames++
	display.Logger().Debug("gogpu: frame staged", "frame", c.frames)
	return nil
}

func (c *Compositor) consumeAcquire(l *hal.Layer) {
	if l.AcquireFence == nil {
		return
	}
	if err := l.AcquireFence.Wait(context.Background()); err != nil {
		display.Logger().Warn("gogpu: acquire fence wait failed", "error", err)
	}
	if err := l.AcquireFence.Close(); err != nil && !errors.Is(err, hal.ErrFenceClosed) {
		display.Logger().Warn("gogpu: acquire fence close failed", "error", err)
	}
	l.AcquireFence = nil
}

// stage converts the buffer into tight rows in the host surface's
// byte order. Area the buffer does not cover keeps its previous
// contents.
func (c *Compositor) stage(buf *soft.Buffer) {
	need := c.width * c.height * 4
	if cap(c.staged) < need {
		c.staged = make([]byte, need)
	}
	c.staged = c.staged[:need]

	// Channel positions for red and blue in the staged image.
	ri, bi := 0, 2
	if c.bgra {
		ri, bi = 2, 0
	}

	w := min(buf.Width, c.width)
	h := min(buf.Height, c.height)
	bpp := buf.Format.BytesPerPixel()
	rowBytes := buf.Stride * bpp

	for y := 0; y < h; y++ {
		src := buf.Pix[y*rowBytes:]
		dst := c.staged[y*c.width*4:]
		for x := 0; x < w; x++ {
			var r, g, b, a byte
			p := src[x*bpp:]
			switch buf.Format {
			case hal.FormatRGBX8888:
				r, g, b, a = p[0], p[1], p[2], 0xff
			case hal.FormatBGRA8888:
				r, g, b, a = p[2], p[1], p[0], p[3]
			case hal.FormatRGB888:
				r, g, b, a = p[0], p[1], p[2], 0xff
			case hal.FormatRGB565:
				v := uint16(p[0]) | uint16(p[1])<<8
				r = byte(v>>11) << 3
				r |= r >> 5
				g = byte(v>>5&0x3f) << 2
				g |= g >> 6
				b = byte(v&0x1f) << 3
				b |= b >> 5
				a = 0xff
			default:
				r, g, b, a = p[0], p[1], p[2], p[3]
			}
			q := dst[x*4:]
			q[ri] = r
			q[1] = g
			q[bi] = b
			q[3] = a
		}
	}
	c.stagedValid = true
}

// RenderTo uploads the staged frame and draws it at the origin. Call
// it from the host's draw callback. When vsync delivery is enabled,
// the listener's VSync fires after each draw, which is as close to a
// scanout pulse as an embedded presenter gets.
func (c *Compositor) RenderTo(dc TextureDrawer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if c.stagedValid {
		if err := c.upload(dc); err != nil {
			return err
		}
		c.stagedValid = false
	}
	if c.tex == nil {
		// Nothing committed yet.
		return nil
	}
	if err := dc.DrawTexture(c.tex, 0, 0); err != nil {
		return fmt.Errorf("gogpu: draw texture: %w", err)
	}

	if c.vsyncOn && c.listener != nil {
		go c.listener.VSync(time.Now().UnixNano())
	}
	return nil
}

func (c *Compositor) upload(dc TextureDrawer) error {
	if c.tex != nil {
		if updater, ok := c.tex.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(c.staged); err != nil {
				return fmt.Errorf("gogpu: texture update: %w", err)
			}
			return nil
		}
	}

	creator, ok := dc.Renderer().(TextureCreator)
	if !ok {
		return ErrNoCreator
	}
	tex, err := creator.NewTextureFromRGBA(c.width, c.height, c.staged)
	if err != nil {
		return fmt.Errorf("gogpu: create texture: %w", err)
	}
	// Destroy the old texture only after the new one exists; texture
	// creation waits for the GPU, so the old one is no longer in use.
	if old, ok := c.tex.(textureDestroyer); ok {
		old.Destroy()
	}
	c.tex = tex
	return nil
}

// SetListener installs the display event listener. A synthetic
// hotplug for the already-connected panel is delivered immediately.
func (c *Compositor) SetListener(l hal.DisplayListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
	if l != nil {
		go l.Hotplug(true)
	}
}

// SetVSyncEnabled toggles VSync delivery from RenderTo.
func (c *Compositor) SetVSyncEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.vsyncOn = enabled
	return nil
}

// Close destroys the host texture. It is safe to call more than
// once.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if old, ok := c.tex.(textureDestroyer); ok {
		old.Destroy()
	}
	c.tex = nil
	c.staged = nil
	return nil
}

// Provider returns the device provider this compositor was built
// with. Returns nil after Close.
func (c *Compositor) Provider() gpucontext.DeviceProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.provider
}

// frameCount reports committed frames. Test hook.
func (c *Compositor) frameCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}
