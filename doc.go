// Package display manages the hand-off of rendered frames from a
// producer to a display controller.
//
// # Overview
//
// display sits between a renderer and the scanout hardware. It owns a
// depth-2 swap chain of allocator-backed buffers, tracks the
// synchronization fences that move buffer ownership between producer
// and compositor, and drives the compositor's two-phase
// prepare/commit protocol for every presented frame.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/display"
//	    "github.com/gogpu/display/hal"
//	    _ "github.com/gogpu/display/drivers"
//	)
//
//	d, err := hal.OpenDefault()
//	s, err := display.New(d.Allocator(), d.Compositor())
//	err = s.Configure(480, 854, hal.FormatRGBA8888, hal.UsageHWRender|hal.UsageHWComposer)
//
//	buf, prior, err := s.Acquire() // prior release fence, producer's to keep
//	// ... render into buf honoring buf.Stride() ...
//	err = s.Submit(buf, renderDoneFence)
//
// # Frame Lifecycle
//
// Acquire hands out a free buffer together with the release fence
// from the last time that buffer was on screen. Submit presents a
// buffer: it fills a two-entry layer list, runs Prepare and Commit on
// the compositor, and stores the new release fence in the buffer's
// slot. Cancel returns an acquired buffer without presenting it.
//
// # Fences
//
// Buffer ownership crosses the producer/compositor boundary through
// fences, never through locks. Every fence has exactly one final
// owner, and that owner must close it exactly once. The chain never
// waits on a fence; waiting is the producer's decision.
//
// # Concurrency
//
// A Surface serves a single producer and is not internally
// synchronized. Submit is synchronous: the compositor has consumed
// the frame (or the frame was dropped) by the time it returns.
//
// # Drivers
//
// Buffer allocation and composition are behind the hal interfaces.
// Importing the drivers package registers the built-in drivers; the
// highest-priority one that probes successfully wins.
package display

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
