// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	wgpu "github.com/gogpu/wgpu/hal"

	"github.com/gogpu/display/hal"
)

// defaultWaitTimeout bounds fence waits when the context carries no
// deadline.
const defaultWaitTimeout = 5 * time.Second

// sharedFence is one device fence handed out as several hal.Fence
// views. Each commit signals a single fence; the retire fence and
// every release fence are views of it with independent close-once
// semantics. The device fence is destroyed when the last view and the
// compositor's own reference are gone.
type sharedFence struct {
	device wgpu.Device
	fence  wgpu.Fence
	value  uint64
	refs   atomic.Int32
}

func newSharedFence(device wgpu.Device, fence wgpu.Fence, value uint64) *sharedFence {
	s := &sharedFence{device: device, fence: fence, value: value}
	s.refs.Store(1) // compositor's reference, dropped at reap
	return s
}

// view returns a new hal.Fence backed by this fence.
func (s *sharedFence) view() hal.Fence {
	s.refs.Add(1)
	return &fenceView{shared: s}
}

func (s *sharedFence) wait(ctx context.Context) error {
	timeout := defaultWaitTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return ctx.Err()
		}
	}
	ok, err := s.device.Wait(s.fence, s.value, timeout)
	if err != nil {
		return fmt.Errorf("vk: fence wait: %w", err)
	}
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("vk: fence wait timed out after %v", timeout)
	}
	return nil
}

func (s *sharedFence) release() {
	if s.refs.Add(-1) == 0 {
		s.device.DestroyFence(s.fence)
	}
}

type fenceView struct {
	shared *sharedFence

	mu     sync.Mutex
	closed bool
}

var _ hal.Fence = (*fenceView)(nil)

func (f *fenceView) Wait(ctx context.Context) error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return hal.ErrFenceClosed
	}
	return f.shared.wait(ctx)
}

func (f *fenceView) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return hal.ErrFenceClosed
	}
	f.closed = true
	f.shared.release()
	return nil
}
