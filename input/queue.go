// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package input

import (
	"context"
	"sync"
)

// Queue is an infinitely buffered double-ended queue of input events.
// The reader goroutine produces with Send, the consumer drains with
// NextEvent or NextEventContext, and SendFirst jumps the line for
// events that must be seen before anything already queued.
//
// The zero value is ready to use. A Queue must not be copied after
// first use.
type Queue struct {
	mu    sync.Mutex
	head  chan any // length 1; empty or holds the queue head
	front []any    // LIFO spill behind the head
	back  []any    // FIFO tail, only used while front is non-empty
}

func (q *Queue) lockAndInit() {
	q.mu.Lock()
	if q.head == nil {
		q.head = make(chan any, 1)
	}
}

// Send appends an event to the back of the queue.
func (q *Queue) Send(event any) {
	q.lockAndInit()
	defer q.mu.Unlock()

	if len(q.front) == 0 && len(q.back) == 0 {
		select {
		case q.head <- event:
		default:
			// back stays unused while front is empty, so a drained
			// queue always refills through head and front.
			q.front = append(q.front, event)
		}
		return
	}
	q.back = append(q.back, event)
}

// SendFirst pushes an event to the front of the queue, ahead of
// everything Send has queued.
func (q *Queue) SendFirst(event any) {
	q.lockAndInit()
	defer q.mu.Unlock()

	// Demote the current head, if any, onto the front spill.
	select {
	case prev := <-q.head:
		q.front = append(q.front, prev)
	default:
	}
	q.head <- event
}

// NextEvent blocks until an event is available and returns it.
func (q *Queue) NextEvent() any {
	q.lockAndInit()
	defer q.mu.Unlock()

	var event any
	select {
	case event = <-q.head:
	default:
		// Queue is empty. Release the lock so senders can make
		// progress while we block on the head channel.
		q.mu.Unlock()
		event = <-q.head
		q.mu.Lock()
	}
	q.refillLocked()
	return event
}

// NextEventContext is NextEvent with cancellation. It returns ctx.Err()
// if the context ends before an event arrives.
func (q *Queue) NextEventContext(ctx context.Context) (any, error) {
	q.lockAndInit()
	defer q.mu.Unlock()

	var event any
	select {
	case event = <-q.head:
	default:
		q.mu.Unlock()
		select {
		case event = <-q.head:
		case <-ctx.Done():
			q.mu.Lock()
			return nil, ctx.Err()
		}
		q.mu.Lock()
	}
	q.refillLocked()
	return event, nil
}

// refillLocked moves the next queued event into the head channel and,
// when the front spill drains, reverses back onto it.
func (q *Queue) refillLocked() {
	if len(q.front) == 0 {
		return
	}
	i := len(q.front) - 1
	select {
	case q.head <- q.front[i]:
	default:
		// Another consumer already refilled head.
		return
	}
	q.front[i] = nil
	q.front = q.front[:i]

	if len(q.front) == 0 {
		for n := len(q.back); n > 0; n-- {
			q.front = append(q.front, q.back[n-1])
			q.back[n-1] = nil
		}
		q.back = q.back[:0]
	}
}
