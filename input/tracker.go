// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package input

import (
	"math"

	"github.com/gogpu/display"
	"github.com/gogpu/display/internal/evdev"
)

const (
	// numSlots is how many concurrent contacts the tracker follows,
	// matching the slot count typical touch controllers report.
	numSlots = 10

	// tapDistSq is the squared distance in panel pixels a contact may
	// wander and still count as a tap when it lifts.
	tapDistSq = 16
)

// slot mirrors one kernel multitouch slot, plus the flags the tracker
// needs to synthesize per-contact events at the next frame boundary.
type slot struct {
	trackingID int32
	x, y       int32

	began   bool
	moved   bool
	ended   bool
	endedID int32
}

// tracker folds a multitouch protocol B stream into gesture events.
// It is a pure state machine: feed it device events one at a time and
// collect whatever each closed frame produced.
//
// Gestures follow the first slot: a contact that lands and lifts
// within tapDistSq becomes a Click, a lone dragging contact emits
// Scroll deltas, and two contacts emit Zoom factors scaled against the
// screen diagonal.
type tracker struct {
	slots   [numSlots]slot
	current int

	touchCount      int
	trackingUpdated bool

	firstX, firstY int32
	lastX, lastY   int32
	lastDist       float64

	minX, minY int32
	screenDiag float64
}

func newTracker(screenW, screenH int) *tracker {
	t := &tracker{screenDiag: math.Hypot(float64(screenW), float64(screenH))}
	for i := range t.slots {
		t.slots[i].trackingID = -1
	}
	return t
}

// feed consumes one device event. If the event closed a frame, it
// returns the events that frame produced in dispatch order.
func (t *tracker) feed(ev evdev.Event) []any {
	switch {
	case ev.Type == evdev.EvSyn && ev.Code == evdev.SynReport:
		return t.flush()
	case ev.Type == evdev.EvSyn:
		display.Logger().Debug("input: unknown SYN code", "code", ev.Code)
	case ev.Type == evdev.EvAbs:
		t.absEvent(ev.Code, ev.Value)
	default:
		display.Logger().Debug("input: unknown event type", "type", ev.Type)
	}
	return nil
}

func (t *tracker) absEvent(code uint16, value int32) {
	switch code {
	case evdev.AbsMTSlot:
		if value >= 0 && int(value) < len(t.slots) {
			t.current = int(value)
		} else {
			display.Logger().Warn("input: invalid slot", "slot", value)
		}
	case evdev.AbsMTPositionX:
		s := &t.slots[t.current]
		s.x = value - t.minX
		s.moved = true
	case evdev.AbsMTPositionY:
		s := &t.slots[t.current]
		s.y = value - t.minY
		s.moved = true
	case evdev.AbsMTTrackingID:
		s := &t.slots[t.current]
		if s.trackingID != value && (s.trackingID == -1 || value == -1) {
			t.trackingUpdated = true
			if value == -1 {
				t.touchCount--
				s.ended = true
				s.endedID = s.trackingID
			} else {
				t.touchCount++
				s.began = true
			}
		}
		s.trackingID = value
	case evdev.AbsMTTouchMajor, evdev.AbsMTTouchMinor,
		evdev.AbsMTWidthMajor, evdev.AbsMTWidthMinor,
		evdev.AbsMTOrientation:
		// Contact geometry does not feed any gesture.
	default:
		display.Logger().Debug("input: unknown ABS code", "code", code)
	}
}

// flush closes the current frame: per-contact touch events first, then
// the gesture the first slot's state adds up to.
func (t *tracker) flush() []any {
	var out []any
	s0Landed := t.slots[0].began
	for i := range t.slots {
		s := &t.slots[i]
		if s.began {
			id := s.trackingID
			if s.ended {
				id = s.endedID
			}
			out = append(out, TouchEvent{ID: TouchID(id), Phase: TouchBegan, X: s.x, Y: s.y})
		}
		if s.ended {
			out = append(out, TouchEvent{ID: TouchID(s.endedID), Phase: TouchEnded, X: s.x, Y: s.y})
		} else if s.moved && !s.began && s.trackingID != -1 {
			out = append(out, TouchEvent{ID: TouchID(s.trackingID), Phase: TouchMoved, X: s.x, Y: s.y})
		}
		s.began, s.moved, s.ended = false, false, false
	}

	s0 := &t.slots[0]
	if t.trackingUpdated {
		t.trackingUpdated = false
		if s0.trackingID == -1 {
			// A contact that landed and lifted inside one frame never
			// traveled, so it is a tap regardless of the old anchor.
			dx := int64(s0.x - t.firstX)
			dy := int64(s0.y - t.firstY)
			if s0Landed || dx*dx+dy*dy < tapDistSq {
				out = append(out, ClickEvent{X: s0.x, Y: s0.y})
			}
		} else {
			// A contact landed or a secondary lifted. Re-anchor so the
			// next move frame measures from here.
			t.lastX, t.lastY = s0.x, s0.y
			t.firstX, t.firstY = s0.x, s0.y
			if t.touchCount >= 2 {
				t.lastDist = contactDist(s0, &t.slots[1])
			}
		}
		return out
	}

	if t.touchCount == 1 {
		out = append(out, ScrollEvent{DX: s0.x - t.lastX, DY: s0.y - t.lastY, X: s0.x, Y: s0.y})
	}
	t.lastX, t.lastY = s0.x, s0.y
	if t.touchCount >= 2 {
		cur := contactDist(s0, &t.slots[1])
		out = append(out, ZoomEvent{Factor: (t.screenDiag + (cur - t.lastDist)) / t.screenDiag})
		t.lastDist = cur
	}
	return out
}

func contactDist(a, b *slot) float64 {
	return math.Hypot(float64(b.x-a.x), float64(b.y-a.y))
}
