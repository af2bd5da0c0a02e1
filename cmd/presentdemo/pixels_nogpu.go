//go:build nogpu

package main

import "github.com/gogpu/display/hal"

func gpuBufferPixels(hal.BufferHandle) ([]byte, bool) {
	return nil, false
}
