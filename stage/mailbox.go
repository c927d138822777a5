/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package stage

import (
	gods "github.com/Workiva/go-datastructures/queue"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
)

// invocationCell pairs an invocation with its pending completion while it
// waits in a handler mailbox.
type invocationCell struct {
	invocation *addressable.Invocation
	completion *future.Completion
}

// mailbox is a bounded MPSC queue backed by a ring buffer. Producers fail
// fast with ErrCapacityExceeded when the mailbox is full; a single consumer
// dequeues in FIFO order.
type mailbox struct {
	underlying *gods.RingBuffer
}

func newMailbox(capacity int) *mailbox {
	return &mailbox{
		underlying: gods.NewRingBuffer(uint64(capacity)),
	}
}

// Enqueue inserts a cell without blocking. It returns ErrCapacityExceeded
// when the mailbox is full and ErrDeactivating when the mailbox has been
// disposed by its consumer.
func (m *mailbox) Enqueue(cell *invocationCell) error {
	ok, err := m.underlying.Offer(cell)
	if err != nil {
		return errors.ErrDeactivating
	}
	if !ok {
		return errors.ErrCapacityExceeded
	}
	return nil
}

// Dequeue removes and returns the next cell, or nil when the mailbox is
// empty. Only the handler loop may call it.
func (m *mailbox) Dequeue() *invocationCell {
	if m.underlying.Len() > 0 {
		item, err := m.underlying.Get()
		if err != nil {
			return nil
		}
		return item.(*invocationCell)
	}
	return nil
}

// Dispose permanently closes the mailbox. Subsequent enqueues fail.
func (m *mailbox) Dispose() {
	m.underlying.Dispose()
}

// Len returns the number of queued cells.
func (m *mailbox) Len() int64 {
	return int64(m.underlying.Len())
}

// IsEmpty reports whether the mailbox currently holds no cells.
func (m *mailbox) IsEmpty() bool {
	return m.Len() == 0
}
