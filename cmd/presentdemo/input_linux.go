//go:build linux

package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/gogpu/display/config"
	"github.com/gogpu/display/input"
)

// tailGestures prints n touch gestures from the profile's event
// device. Interrupt stops it early.
func tailGestures(profile *config.Profile, n int) error {
	q := new(input.Queue)
	r, err := input.NewReader(q,
		input.WithDevicePath(profile.InputDevice),
		input.WithScreenSize(profile.Width, profile.Height),
	)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("Reading %d gestures from %s (interrupt to stop)", n, profile.InputDevice)
	for seen := 0; seen < n; {
		ev, err := q.NextEventContext(ctx)
		if err != nil {
			return err
		}
		switch ev := ev.(type) {
		case input.ClickEvent:
			log.Printf("Click at (%d,%d)", ev.X, ev.Y)
			seen++
		case input.ScrollEvent:
			log.Printf("Scroll %+d,%+d at (%d,%d)", ev.DX, ev.DY, ev.X, ev.Y)
			seen++
		case input.ZoomEvent:
			log.Printf("Zoom x%.3f", ev.Factor)
			seen++
		case input.TouchEvent:
			// Raw contact traffic; only gestures count toward n.
		}
	}
	return nil
}
