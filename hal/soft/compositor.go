// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/display"
	"github.com/gogpu/display/hal"
)

// ErrClosed is returned by compositor operations after Close.
var ErrClosed = errors.New("soft: compositor closed")

// Compositor blends layer lists into an in-memory framebuffer.
//
// Prepare promotes plain framebuffer layers the CPU path can draw
// directly to overlays. Commit draws the framebuffer target first,
// then overlays in list order, waits out and closes the acquire
// fences it consumed, and hands back pre-signaled release and retire
// fences.
//
// Safe for concurrent use, though the expected caller is a single
// presentation pipeline.
type Compositor struct {
	mu      sync.Mutex
	fb      *image.RGBA
	frames  uint64
	closed  bool
	refresh time.Duration

	listener  hal.DisplayListener
	vsyncStop chan struct{}
}

var _ hal.Compositor = (*Compositor)(nil)

func newCompositor(width, height int, hz float64) *Compositor {
	return &Compositor{
		fb:      image.NewRGBA(image.Rect(0, 0, width, height)),
		refresh: time.Duration(float64(time.Second) / hz),
	}
}

// Prepare assigns layers. A non-skipped framebuffer layer with no
// transform and full plane alpha is claimed as an overlay; everything
// else keeps the assignment the caller wrote.
func (c *Compositor) Prepare(list *hal.LayerList) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	for i := range list.Layers {
		l := &list.Layers[i]
		if l.Skipped() || l.Compositing != hal.CompositionFramebuffer {
			continue
		}
		if l.Transform == hal.TransformNone && l.PlaneAlpha == 0xff {
			l.Compositing = hal.CompositionOverlay
		}
	}
	return nil
}

// Commit latches the list into the framebuffer.
func (c *Compositor) Commit(list *hal.LayerList) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	// Framebuffer target is the background; overlays stack above it
	// in list order.
	for i := range list.Layers {
		l := &list.Layers[i]
		if l.Skipped() || l.Compositing != hal.CompositionFramebufferTarget {
			continue
		}
		if err := c.drawLayer(l, draw.Src); err != nil {
			return err
		}
	}
	for i := range list.Layers {
		l := &list.Layers[i]
		if l.Skipped() || l.Compositing != hal.CompositionOverlay {
			continue
		}
		if err := c.drawLayer(l, draw.Over); err != nil {
			return err
		}
	}

	list.RetireFence = newFence()
	c.frames++
	display.Logger().Debug("soft: frame committed",
		"frame", c.frames, "layers", len(list.Layers))
	return nil
}

// drawLayer consumes one layer's acquire fence and blits it.
func (c *Compositor) drawLayer(l *hal.Layer, op draw.Op) error {
	buf, ok := l.Handle.(*Buffer)
	if !ok {
		return fmt.Errorf("soft: layer handle %T is not a soft buffer", l.Handle)
	}

	if l.AcquireFence != nil {
		if err := l.AcquireFence.Wait(context.Background()); err != nil {
			display.Logger().Warn("soft: acquire wait failed", "err", err)
		}
		if err := l.AcquireFence.Close(); err != nil {
			display.Logger().Warn("soft: acquire close failed", "err", err)
		}
		l.AcquireFence = nil
	}

	src, mutable := layerSource(buf, l.SourceCrop)
	src = applyTransform(src, l.Transform)
	src = applyAlpha(src, l.PlaneAlpha, mutable || l.Transform != hal.TransformNone)

	sb := src.Bounds()
	if sb.Dx() == l.DisplayFrame.Dx() && sb.Dy() == l.DisplayFrame.Dy() {
		draw.Draw(c.fb, l.DisplayFrame, src, sb.Min, op)
	} else {
		xdraw.NearestNeighbor.Scale(c.fb, l.DisplayFrame, src, sb, op, nil)
	}

	l.ReleaseFence = newFence()
	return nil
}

// SetListener installs the display event listener. The panel is
// always connected, so a synthetic Hotplug(true) is delivered to
// every new listener.
func (c *Compositor) SetListener(l hal.DisplayListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()

	if l != nil {
		go l.Hotplug(true)
	}
}

// SetVSyncEnabled starts or stops the vsync ticker.
func (c *Compositor) SetVSyncEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if !enabled {
		if c.vsyncStop != nil {
			close(c.vsyncStop)
			c.vsyncStop = nil
		}
		return nil
	}

	if c.vsyncStop != nil {
		return nil
	}
	stop := make(chan struct{})
	c.vsyncStop = stop
	go c.vsyncLoop(stop)
	return nil
}

// vsyncLoop ticks at the refresh rate until stop closes.
func (c *Compositor) vsyncLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			l := c.listener
			c.mu.Unlock()
			if l != nil {
				l.VSync(now.UnixNano())
			}
		}
	}
}

// Close stops vsync and rejects further commits.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if c.vsyncStop != nil {
		close(c.vsyncStop)
		c.vsyncStop = nil
	}
	c.closed = true
	return nil
}

// Snapshot returns a copy of the current framebuffer contents. The
// error is always nil; the signature matches the GPU drivers, whose
// readback can fail.
func (c *Compositor) Snapshot() (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := image.NewRGBA(c.fb.Rect)
	copy(out.Pix, c.fb.Pix)
	return out, nil
}

// frameCount returns the number of committed frames. Test hook.
func (c *Compositor) frameCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}
