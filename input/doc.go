// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package input turns Linux multitouch event streams into gesture
// events.
//
// A Reader (Linux only) pumps one evdev device into a Queue, and the
// consumer drains the queue with a type switch:
//
//	q := new(input.Queue)
//	r, err := input.NewReader(q, input.WithScreenSize(1080, 1920))
//	if err != nil {
//		// ...
//	}
//	defer r.Close()
//	for {
//		switch ev := q.NextEvent().(type) {
//		case input.TouchEvent:
//		case input.ClickEvent:
//		case input.ScrollEvent:
//		case input.ZoomEvent:
//		}
//	}
//
// Devices speak multitouch protocol B: contacts occupy slots keyed by
// tracking ID and a SYN_REPORT closes each frame. The tracker follows
// up to ten contacts, reports each one's lifecycle as TouchEvents, and
// derives Click, Scroll and Zoom gestures from the first slot.
package input
