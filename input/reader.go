// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package input

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/display"
	"github.com/gogpu/display/internal/evdev"
)

const (
	defaultDevicePath = "/dev/input/event0"
	defaultScreenW    = 480
	defaultScreenH    = 854

	// readBatch is how many events one device read may return.
	readBatch = 16
)

// Option configures a Reader.
type Option func(*Reader)

// WithDevicePath sets the event device node to read. The default is
// /dev/input/event0.
func WithDevicePath(path string) Option {
	return func(r *Reader) { r.path = path }
}

// WithScreenSize sets the panel dimensions zoom factors are scaled
// against. The default is 480x854.
func WithScreenSize(width, height int) Option {
	return func(r *Reader) {
		r.screenW = width
		r.screenH = height
	}
}

// Reader pumps one touch device into a Queue. Each kernel frame
// becomes zero or more events: per-contact TouchEvents, then the
// gesture the frame adds up to (ClickEvent, ScrollEvent or ZoomEvent).
type Reader struct {
	path             string
	screenW, screenH int

	dev   *evdev.Device
	queue *Queue
	done  chan struct{}
}

// NewReader opens the device and starts the pump goroutine. The caller
// drains q; Close stops the pump.
func NewReader(q *Queue, opts ...Option) (*Reader, error) {
	if q == nil {
		return nil, errors.New("input: nil queue")
	}
	r := &Reader{
		path:    defaultDevicePath,
		screenW: defaultScreenW,
		screenH: defaultScreenH,
		queue:   q,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	dev, err := evdev.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	r.dev = dev

	tr := newTracker(r.screenW, r.screenH)
	xInfo, err := dev.AbsInfo(evdev.AbsMTPositionX)
	if err != nil {
		display.Logger().Warn("input: no X axis info", "error", err)
	}
	yInfo, err := dev.AbsInfo(evdev.AbsMTPositionY)
	if err != nil {
		display.Logger().Warn("input: no Y axis info", "error", err)
	}
	tr.minX, tr.minY = xInfo.Minimum, yInfo.Minimum

	display.Logger().Info("input: device opened",
		"path", r.path,
		"xRange", xInfo.Range(),
		"yRange", yInfo.Range(),
	)

	go r.pump(tr)
	return r, nil
}

func (r *Reader) pump(tr *tracker) {
	defer close(r.done)
	buf := make([]evdev.Event, readBatch)
	for {
		n, err := r.dev.ReadEvents(buf)
		if err != nil {
			// Close unblocks the pending read with ErrClosed.
			if !errors.Is(err, os.ErrClosed) {
				display.Logger().Warn("input: device read failed", "error", err)
			}
			return
		}
		for _, ev := range buf[:n] {
			for _, out := range tr.feed(ev) {
				r.queue.Send(out)
			}
		}
	}
}

// Close closes the device and waits for the pump goroutine to exit.
func (r *Reader) Close() error {
	err := r.dev.Close()
	<-r.done
	return err
}
