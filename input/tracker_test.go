// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package input

import (
	"math"
	"reflect"
	"testing"

	"github.com/gogpu/display/internal/evdev"
)

func absEv(code uint16, value int32) evdev.Event {
	return evdev.Event{Type: evdev.EvAbs, Code: code, Value: value}
}

func synEv() evdev.Event {
	return evdev.Event{Type: evdev.EvSyn, Code: evdev.SynReport}
}

// feedFrame feeds one frame's events plus the closing SYN_REPORT and
// returns what the frame produced.
func feedFrame(t *testing.T, tr *tracker, evs ...evdev.Event) []any {
	t.Helper()
	for _, ev := range evs {
		if out := tr.feed(ev); out != nil {
			t.Fatalf("mid-frame event %+v produced output %v", ev, out)
		}
	}
	return tr.feed(synEv())
}

// TestTrackerTap verifies a lifting contact produces a click only when
// it stayed within the tap radius of where it landed.
func TestTrackerTap(t *testing.T) {
	tests := []struct {
		name      string
		moveTo    *[2]int32
		wantClick bool
	}{
		{"stays put", nil, true},
		{"drifts inside tap radius", &[2]int32{103, 200}, true},
		{"drags away", &[2]int32{110, 200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(480, 854)
			got := feedFrame(t, tr,
				absEv(evdev.AbsMTTrackingID, 7),
				absEv(evdev.AbsMTPositionX, 100),
				absEv(evdev.AbsMTPositionY, 200),
			)
			want := []any{TouchEvent{ID: 7, Phase: TouchBegan, X: 100, Y: 200}}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("down frame = %v, want %v", got, want)
			}

			x, y := int32(100), int32(200)
			if tt.moveTo != nil {
				x, y = tt.moveTo[0], tt.moveTo[1]
				feedFrame(t, tr,
					absEv(evdev.AbsMTPositionX, x),
					absEv(evdev.AbsMTPositionY, y),
				)
			}

			got = feedFrame(t, tr, absEv(evdev.AbsMTTrackingID, -1))
			want = []any{TouchEvent{ID: 7, Phase: TouchEnded, X: x, Y: y}}
			if tt.wantClick {
				want = append(want, ClickEvent{X: x, Y: y})
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("up frame = %v, want %v", got, want)
			}
		})
	}
}

// TestTrackerSameFrameTap verifies a contact that lands and lifts
// between two frame boundaries still counts as a tap.
func TestTrackerSameFrameTap(t *testing.T) {
	tr := newTracker(480, 854)
	got := feedFrame(t, tr,
		absEv(evdev.AbsMTTrackingID, 9),
		absEv(evdev.AbsMTPositionX, 40),
		absEv(evdev.AbsMTPositionY, 41),
		absEv(evdev.AbsMTTrackingID, -1),
	)
	want := []any{
		TouchEvent{ID: 9, Phase: TouchBegan, X: 40, Y: 41},
		TouchEvent{ID: 9, Phase: TouchEnded, X: 40, Y: 41},
		ClickEvent{X: 40, Y: 41},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frame = %v, want %v", got, want)
	}
	if got, want := tr.touchCount, 0; got != want {
		t.Fatalf("touchCount = %d, want %d", got, want)
	}
}

// TestTrackerScroll verifies a lone dragging contact emits per-frame
// deltas measured from the previous frame.
func TestTrackerScroll(t *testing.T) {
	tr := newTracker(480, 854)
	feedFrame(t, tr,
		absEv(evdev.AbsMTTrackingID, 4),
		absEv(evdev.AbsMTPositionX, 100),
		absEv(evdev.AbsMTPositionY, 100),
	)

	got := feedFrame(t, tr,
		absEv(evdev.AbsMTPositionX, 110),
		absEv(evdev.AbsMTPositionY, 105),
	)
	want := []any{
		TouchEvent{ID: 4, Phase: TouchMoved, X: 110, Y: 105},
		ScrollEvent{DX: 10, DY: 5, X: 110, Y: 105},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("first move = %v, want %v", got, want)
	}

	got = feedFrame(t, tr, absEv(evdev.AbsMTPositionX, 120))
	want = []any{
		TouchEvent{ID: 4, Phase: TouchMoved, X: 120, Y: 105},
		ScrollEvent{DX: 10, DY: 0, X: 120, Y: 105},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("second move = %v, want %v", got, want)
	}
}

// TestTrackerZoom verifies two contacts suppress scrolling and emit
// zoom factors from the change in contact distance, and that scrolling
// resumes without a jump once the second contact lifts.
func TestTrackerZoom(t *testing.T) {
	diag := math.Hypot(480, 854)
	tr := newTracker(480, 854)

	feedFrame(t, tr,
		absEv(evdev.AbsMTTrackingID, 1),
		absEv(evdev.AbsMTPositionX, 100),
		absEv(evdev.AbsMTPositionY, 100),
	)
	got := feedFrame(t, tr,
		absEv(evdev.AbsMTSlot, 1),
		absEv(evdev.AbsMTTrackingID, 2),
		absEv(evdev.AbsMTPositionX, 200),
		absEv(evdev.AbsMTPositionY, 100),
	)
	want := []any{TouchEvent{ID: 2, Phase: TouchBegan, X: 200, Y: 100}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("second contact frame = %v, want %v", got, want)
	}

	// Contacts spread from 100 to 200 pixels apart.
	got = feedFrame(t, tr, absEv(evdev.AbsMTPositionX, 300))
	if len(got) != 2 {
		t.Fatalf("spread frame = %v, want touch + zoom", got)
	}
	if want := (TouchEvent{ID: 2, Phase: TouchMoved, X: 300, Y: 100}); got[0] != want {
		t.Fatalf("spread touch = %v, want %v", got[0], want)
	}
	zoom, ok := got[1].(ZoomEvent)
	if !ok {
		t.Fatalf("spread frame[1] = %T, want ZoomEvent", got[1])
	}
	if want := (diag + 100) / diag; math.Abs(zoom.Factor-want) > 1e-12 {
		t.Fatalf("zoom factor = %v, want %v", zoom.Factor, want)
	}

	// Contacts close back in from 200 to 150 pixels apart.
	got = feedFrame(t, tr, absEv(evdev.AbsMTPositionX, 250))
	zoom, ok = got[1].(ZoomEvent)
	if !ok {
		t.Fatalf("pinch frame[1] = %T, want ZoomEvent", got[1])
	}
	if want := (diag - 50) / diag; math.Abs(zoom.Factor-want) > 1e-12 {
		t.Fatalf("pinch factor = %v, want %v", zoom.Factor, want)
	}

	// Second contact lifts; the next first-slot move scrolls from the
	// re-anchored position instead of jumping.
	got = feedFrame(t, tr, absEv(evdev.AbsMTTrackingID, -1))
	want = []any{TouchEvent{ID: 2, Phase: TouchEnded, X: 250, Y: 100}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lift frame = %v, want %v", got, want)
	}

	got = feedFrame(t, tr,
		absEv(evdev.AbsMTSlot, 0),
		absEv(evdev.AbsMTPositionX, 105),
	)
	want = []any{
		TouchEvent{ID: 1, Phase: TouchMoved, X: 105, Y: 100},
		ScrollEvent{DX: 5, DY: 0, X: 105, Y: 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("resume frame = %v, want %v", got, want)
	}
}

// TestTrackerIDReplace verifies a slot whose tracking ID changes
// without passing through -1 keeps its contact alive under the new ID.
func TestTrackerIDReplace(t *testing.T) {
	tr := newTracker(480, 854)
	feedFrame(t, tr,
		absEv(evdev.AbsMTTrackingID, 5),
		absEv(evdev.AbsMTPositionX, 10),
		absEv(evdev.AbsMTPositionY, 10),
	)

	got := feedFrame(t, tr, absEv(evdev.AbsMTTrackingID, 8))
	want := []any{ScrollEvent{DX: 0, DY: 0, X: 10, Y: 10}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("replace frame = %v, want %v", got, want)
	}
	if got, want := tr.touchCount, 1; got != want {
		t.Fatalf("touchCount = %d, want %d", got, want)
	}

	got = feedFrame(t, tr, absEv(evdev.AbsMTPositionX, 12))
	want = []any{
		TouchEvent{ID: 8, Phase: TouchMoved, X: 12, Y: 10},
		ScrollEvent{DX: 2, DY: 0, X: 12, Y: 10},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("move frame = %v, want %v", got, want)
	}
}

// TestTrackerSlotRouting verifies position events follow the selected
// slot and that an out-of-range slot select is ignored.
func TestTrackerSlotRouting(t *testing.T) {
	tr := newTracker(480, 854)
	feedFrame(t, tr,
		absEv(evdev.AbsMTSlot, 0),
		absEv(evdev.AbsMTTrackingID, 1),
		absEv(evdev.AbsMTPositionX, 10),
		absEv(evdev.AbsMTPositionY, 20),
	)

	// Slot 42 does not exist, so the X lands in slot 0.
	got := feedFrame(t, tr,
		absEv(evdev.AbsMTSlot, 42),
		absEv(evdev.AbsMTPositionX, 99),
	)
	want := []any{
		TouchEvent{ID: 1, Phase: TouchMoved, X: 99, Y: 20},
		ScrollEvent{DX: 89, DY: 0, X: 99, Y: 20},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frame = %v, want %v", got, want)
	}
}

// TestTrackerAxisMinimum verifies positions are normalized by the axis
// minimums reported by the device.
func TestTrackerAxisMinimum(t *testing.T) {
	tr := newTracker(480, 854)
	tr.minX, tr.minY = 100, 50
	got := feedFrame(t, tr,
		absEv(evdev.AbsMTTrackingID, 3),
		absEv(evdev.AbsMTPositionX, 150),
		absEv(evdev.AbsMTPositionY, 80),
	)
	want := []any{TouchEvent{ID: 3, Phase: TouchBegan, X: 50, Y: 30}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frame = %v, want %v", got, want)
	}
}

// TestTrackerStrayEvents verifies unknown codes, contact geometry and
// redundant lift events produce nothing and leave the tracker working.
func TestTrackerStrayEvents(t *testing.T) {
	tr := newTracker(480, 854)
	stray := []evdev.Event{
		{Type: evdev.EvKey, Code: 0x14a, Value: 1},
		absEv(0x3a, 5),
		absEv(evdev.AbsMTTouchMajor, 30),
		absEv(evdev.AbsMTOrientation, 1),
		{Type: evdev.EvSyn, Code: 1},
		absEv(evdev.AbsMTTrackingID, -1),
	}
	for _, ev := range stray {
		if out := tr.feed(ev); out != nil {
			t.Fatalf("event %+v produced output %v", ev, out)
		}
	}
	if out := tr.feed(synEv()); len(out) != 0 {
		t.Fatalf("empty frame produced output %v", out)
	}
	if got, want := tr.touchCount, 0; got != want {
		t.Fatalf("touchCount = %d, want %d", got, want)
	}

	got := feedFrame(t, tr,
		absEv(evdev.AbsMTTrackingID, 2),
		absEv(evdev.AbsMTPositionX, 5),
		absEv(evdev.AbsMTPositionY, 6),
	)
	want := []any{TouchEvent{ID: 2, Phase: TouchBegan, X: 5, Y: 6}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frame after strays = %v, want %v", got, want)
	}
}
