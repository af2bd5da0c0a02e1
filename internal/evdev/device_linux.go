// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package evdev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	eventSize   = int(unsafe.Sizeof(Event{}))
	absInfoSize = int(unsafe.Sizeof(AbsInfo{}))
)

// Device is an open input event node.
type Device struct {
	f *os.File
}

// Open opens an event device node read-only.
func Open(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("evdev: open %s: %w", path, err)
	}
	return &Device{f: f}, nil
}

// Path returns the device node path.
func (d *Device) Path() string { return d.f.Name() }

// Close closes the device node and unblocks a pending ReadEvents.
func (d *Device) Close() error { return d.f.Close() }

// AbsInfo queries the range of one absolute axis via EVIOCGABS.
func (d *Device) AbsInfo(code uint16) (AbsInfo, error) {
	var info AbsInfo
	req := eviocgabs(code)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return AbsInfo{}, fmt.Errorf("evdev: EVIOCGABS(%#x) on %s: %w", code, d.f.Name(), errno)
	}
	return info, nil
}

// eviocgabs builds the EVIOCGABS(code) ioctl request number:
// read direction, 'E' type, 0x40+code, sizeof(input_absinfo).
func eviocgabs(code uint16) uintptr {
	const iocRead = 2
	return uintptr(iocRead)<<30 | uintptr(absInfoSize)<<16 | uintptr('E')<<8 | uintptr(0x40+code)
}

// ReadEvents fills buf with decoded events, blocking until the device
// produces at least one. It returns the number of events read.
func (d *Device) ReadEvents(buf []Event) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*eventSize) //nolint:gosec // kernel struct layout
	n, err := d.f.Read(raw)
	if err != nil {
		return 0, fmt.Errorf("evdev: read %s: %w", d.f.Name(), err)
	}
	if n%eventSize != 0 {
		return 0, fmt.Errorf("evdev: short read of %d bytes from %s", n, d.f.Name())
	}
	return n / eventSize, nil
}
