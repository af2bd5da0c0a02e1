package display

import (
	"fmt"
	"image"

	"github.com/gogpu/display/hal"
)

// Pipeline turns a submitted buffer into one compositor commit.
//
// Every frame is described by the same two-entry layer list. Layer 0
// is a full-surface placeholder the compositor must skip; it keeps
// the list shape stable so the device does not re-derive its layer
// assignment each frame. Layer 1 carries the submitted buffer as the
// framebuffer target, covering the whole surface, gated on the
// producer's render-complete fence.
//
// Fence ownership through a present:
//   - the acquire fence transfers to the compositor at Commit (and is
//     closed here if Prepare fails before Commit could take it),
//   - the retire fence comes back from Commit and is closed here,
//   - layer 1's release fence comes back from Commit and is returned
//     to the caller, who owns it from then on.
type Pipeline struct {
	comp hal.Compositor

	// scratch is the reused backing for the per-frame layer list.
	// Single producer, so no synchronization.
	scratch [2]hal.Layer
}

var _ Presenter = (*Pipeline)(nil)

// NewPipeline creates a pipeline committing to comp.
func NewPipeline(comp hal.Compositor) *Pipeline {
	return &Pipeline{comp: comp}
}

// Present commits buf to the display and returns its release fence.
func (p *Pipeline) Present(buf *GraphicsBuffer, renderDone Fence) (Fence, error) {
	bounds := image.Rect(0, 0, buf.Width(), buf.Height())

	p.scratch[0] = hal.Layer{
		Compositing:  hal.CompositionFramebuffer,
		Flags:        hal.LayerSkip,
		SourceCrop:   bounds,
		DisplayFrame: bounds,
		PlaneAlpha:   0xff,
	}
	p.scratch[1] = hal.Layer{
		Compositing:  hal.CompositionFramebufferTarget,
		Handle:       buf.Handle(),
		SourceCrop:   bounds,
		DisplayFrame: bounds,
		PlaneAlpha:   0xff,
		AcquireFence: renderDone,
	}

	list := hal.LayerList{
		Layers: p.scratch[:],
		Flags:  hal.GeometryChanged,
	}

	if err := p.comp.Prepare(&list); err != nil {
		// Commit never ran, so the acquire fence is still ours.
		closeFence(renderDone, "prepare")
		return nil, fmt.Errorf("display: prepare: %w", err)
	}

	err := p.comp.Commit(&list)

	// The frame this one replaced has retired; nobody downstream
	// wants that fence.
	closeFence(list.RetireFence, "retire")

	if err != nil {
		// A failed commit still consumed the acquire fence, but any
		// release fence it managed to populate stays with us and is
		// not handed out for a dropped frame.
		closeFence(p.scratch[1].ReleaseFence, "failed commit")
		return nil, fmt.Errorf("display: commit: %w", err)
	}

	return p.scratch[1].ReleaseFence, nil
}
