// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package input

// TouchID identifies one contact from the frame it lands to the frame
// it lifts. The kernel recycles IDs, so they are only unique among the
// contacts currently on the panel.
type TouchID int32

// TouchPhase is where a contact is in its lifetime.
type TouchPhase int

const (
	// TouchBegan reports a contact landing on the panel.
	TouchBegan TouchPhase = iota
	// TouchMoved reports a tracked contact changing position.
	TouchMoved
	// TouchEnded reports a contact lifting off the panel.
	TouchEnded
)

// String returns the phase name.
func (p TouchPhase) String() string {
	switch p {
	case TouchBegan:
		return "began"
	case TouchMoved:
		return "moved"
	case TouchEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// TouchEvent reports one contact's state at a frame boundary.
// Coordinates are panel pixels with the axis minimum subtracted out.
type TouchEvent struct {
	ID    TouchID
	Phase TouchPhase
	X, Y  int32
}

// ClickEvent reports a tap: a single contact that lifted without
// straying from where it landed.
type ClickEvent struct {
	X, Y int32
}

// ScrollEvent reports a one-contact drag. DX and DY are the movement
// since the previous frame; X and Y are the current position.
type ScrollEvent struct {
	DX, DY int32
	X, Y   int32
}

// ZoomEvent reports a pinch between the first two contacts. Factor is
// the frame-over-frame scale: above 1 the contacts spread apart, below
// 1 they close in.
type ZoomEvent struct {
	Factor float64
}
