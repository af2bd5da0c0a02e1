// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package evdev decodes the Linux input event protocol.
//
// Only the multitouch slice of the protocol is covered: the event
// types, the ABS_MT_* axis codes and the absinfo axis ranges that a
// protocol B touchscreen reports. Device access lives in the
// linux-only half of the package.
package evdev

// Event types.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvAbs uint16 = 0x03
)

// EV_SYN codes.
const (
	SynReport uint16 = 0x00
)

// EV_ABS multitouch codes.
const (
	AbsMTSlot        uint16 = 0x2f
	AbsMTTouchMajor  uint16 = 0x30
	AbsMTTouchMinor  uint16 = 0x31
	AbsMTWidthMajor  uint16 = 0x32
	AbsMTWidthMinor  uint16 = 0x33
	AbsMTOrientation uint16 = 0x34
	AbsMTPositionX   uint16 = 0x35
	AbsMTPositionY   uint16 = 0x36
	AbsMTTrackingID  uint16 = 0x39
)

// Event mirrors the kernel's input_event struct on 64-bit platforms:
// a 16-byte timeval followed by type, code and value.
type Event struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// AbsInfo mirrors the kernel's input_absinfo struct, describing one
// absolute axis.
type AbsInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// Range returns the axis extent.
func (a AbsInfo) Range() int32 { return a.Maximum - a.Minimum }
