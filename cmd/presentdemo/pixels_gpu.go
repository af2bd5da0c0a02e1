//go:build !nogpu

package main

import (
	"github.com/gogpu/display/hal"
	"github.com/gogpu/display/hal/vk"
)

func gpuBufferPixels(handle hal.BufferHandle) ([]byte, bool) {
	if b, ok := handle.(*vk.Buffer); ok {
		return b.Pix, true
	}
	return nil, false
}
