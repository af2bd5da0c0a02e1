// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"context"
	"errors"
)

// ErrFenceClosed is returned when a fence is closed more than once.
var ErrFenceClosed = errors.New("hal: fence already closed")

// Fence is a one-shot synchronization token produced by a driver.
//
// A fence signals when the hardware work it tracks has finished: a
// release fence signals when the compositor is done reading a buffer,
// an acquire fence signals when the producer is done writing one.
//
// Ownership is explicit. Whoever ends up holding a fence must close
// it exactly once; closing releases the underlying driver object.
// A nil Fence means "no fence" and needs no closing. Waiting is
// optional and never implied by Close.
type Fence interface {
	// Wait blocks until the fence signals or ctx is done.
	Wait(ctx context.Context) error

	// Close releases the fence. Second and later calls return
	// ErrFenceClosed.
	Close() error
}
