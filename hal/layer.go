// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import "image"

// Composition selects who composites a layer. Prepare may rewrite it;
// the values match the conventional composer protocol.
type Composition uint32

const (
	// CompositionFramebuffer asks the client to render the layer into
	// the framebuffer target itself.
	CompositionFramebuffer Composition = 0

	// CompositionOverlay assigns the layer to a hardware overlay.
	CompositionOverlay Composition = 1

	// CompositionFramebufferTarget marks the layer carrying the
	// client-rendered framebuffer.
	CompositionFramebufferTarget Composition = 3
)

// String returns the composition name for logs.
func (c Composition) String() string {
	switch c {
	case CompositionFramebuffer:
		return "framebuffer"
	case CompositionOverlay:
		return "overlay"
	case CompositionFramebufferTarget:
		return "framebuffer-target"
	default:
		return "unknown"
	}
}

// Transform describes a rotation or flip applied when a layer is
// scanned out. The values match the conventional transform bits.
type Transform uint32

const (
	TransformNone   Transform = 0
	TransformFlipH  Transform = 1
	TransformFlipV  Transform = 2
	TransformRot180 Transform = 3
	TransformRot90  Transform = 4
	TransformRot270 Transform = 7
)

// LayerFlags is a bitset of per-layer hints.
type LayerFlags uint32

const (
	// LayerSkip tells the compositor to ignore the layer entirely.
	// Skipped layers carry no buffer and receive no release fence.
	LayerSkip LayerFlags = 1
)

// ListFlags is a bitset of per-commit hints.
type ListFlags uint32

const (
	// GeometryChanged marks lists whose layer arrangement differs
	// from the previous commit, forcing a full re-prepare.
	GeometryChanged ListFlags = 1
)

// Layer is one entry of a LayerList.
//
// SourceCrop selects the region of the buffer to read; DisplayFrame
// places it on the panel. AcquireFence, when non-nil, gates the
// compositor's reads on the producer's rendering; the compositor
// takes ownership of it at Commit. ReleaseFence is populated by
// Commit and transfers to the caller.
type Layer struct {
	Compositing  Composition
	Flags        LayerFlags
	Handle       BufferHandle
	Transform    Transform
	SourceCrop   image.Rectangle
	DisplayFrame image.Rectangle
	PlaneAlpha   uint8
	AcquireFence Fence
	ReleaseFence Fence
}

// Skipped reports whether the compositor must ignore the layer.
func (l *Layer) Skipped() bool { return l.Flags&LayerSkip != 0 }

// LayerList is the unit of work handed to a Compositor.
//
// RetireFence is populated by Commit; it signals when this frame has
// been replaced on the panel by the next one. It transfers to the
// caller like the per-layer release fences.
type LayerList struct {
	Layers      []Layer
	Flags       ListFlags
	RetireFence Fence
}
