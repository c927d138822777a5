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

package future

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// Completion is a one-shot settable cell representing the pending result of
// an invocation. A Completion starts pending and is settled exactly once with
// either a value or an error; later settle attempts are ignored.
//
// Await blocks until the Completion is settled or the provided context is
// canceled. Cancellation of a waiter only detaches that waiter, it never
// settles the cell: a late settle is still recorded and observable by other
// waiters.
type Completion struct {
	once    sync.Once
	done    chan struct{}
	settled atomic.Bool
	value   any
	err     error
}

// New creates a pending Completion.
func New() *Completion {
	return &Completion{
		done: make(chan struct{}),
	}
}

// Run executes the given task asynchronously and returns a Completion that
// settles with the task result.
func Run(task func() (any, error)) *Completion {
	completion := New()
	go func() {
		value, err := task()
		if err != nil {
			completion.Failure(err)
			return
		}
		completion.Success(value)
	}()
	return completion
}

// Success settles the Completion with a value. It is a no-op when the
// Completion is already settled.
func (c *Completion) Success(value any) {
	c.settle(value, nil)
}

// Failure settles the Completion with an error. It is a no-op when the
// Completion is already settled.
func (c *Completion) Failure(err error) {
	c.settle(nil, err)
}

// Await blocks until the Completion is settled or the context is canceled and
// returns either a result or an error. When the context is canceled the
// context error is returned and the cell stays pending.
func (c *Completion) Await(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel that is closed once the Completion settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Settled returns true once the Completion has been settled.
func (c *Completion) Settled() bool {
	return c.settled.Load()
}

// Result returns the settled value and error. It must only be called after
// the Completion is settled.
func (c *Completion) Result() (any, error) {
	return c.value, c.err
}

func (c *Completion) settle(value any, err error) {
	c.once.Do(func() {
		c.value = value
		c.err = err
		c.settled.Store(true)
		close(c.done)
	})
}
