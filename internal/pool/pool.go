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

package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// Task is a unit of cooperative work submitted to a Group.
type Task func()

// Group is a bounded group of workers. Tasks submitted to a group run
// concurrently up to the group parallelism; a task panic is reported to the
// supervisor error handler and never takes sibling tasks down.
type Group struct {
	name         string
	tokens       chan struct{}
	wg           sync.WaitGroup
	stopped      atomic.Bool
	errorHandler func(error)
}

func newGroup(name string, parallelism int, errorHandler func(error)) *Group {
	return &Group{
		name:         name,
		tokens:       make(chan struct{}, parallelism),
		errorHandler: errorHandler,
	}
}

// Submit schedules the given task on the group. It blocks while the group is
// at full parallelism and returns false when the group has been shut down.
func (g *Group) Submit(task Task) bool {
	if g.stopped.Load() {
		return false
	}

	g.wg.Add(1)
	g.tokens <- struct{}{}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				g.errorHandler(fmt.Errorf("task panic in %s pool: %w", g.name, err))
			}
			<-g.tokens
			g.wg.Done()
		}()
		task()
	}()
	return true
}

// Wait blocks until all in-flight tasks are done or the context expires.
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s pool did not drain: %w", g.name, ctx.Err())
	}
}

func (g *Group) shutdown() {
	g.stopped.Store(true)
}

// Root supervises the two worker groups of a stage: a CPU-bound group with
// parallelism equal to the number of cores and a larger elastic group for
// blocking directory and transport calls.
type Root struct {
	cpu *Group
	io  *Group
}

// ioParallelism bounds the elastic group so that a directory outage cannot
// pile up an unbounded number of goroutines.
const ioParallelism = 1024

// NewRoot creates the supervising task root. All orphan task failures are
// reported to the given error handler.
func NewRoot(errorHandler func(error)) *Root {
	if errorHandler == nil {
		errorHandler = func(error) {}
	}
	return &Root{
		cpu: newGroup("cpu", runtime.GOMAXPROCS(0), errorHandler),
		io:  newGroup("io", ioParallelism, errorHandler),
	}
}

// CPU returns the CPU-bound group.
func (r *Root) CPU() *Group {
	return r.cpu
}

// IO returns the I/O-bound group.
func (r *Root) IO() *Group {
	return r.io
}

// Shutdown stops admission on both groups and waits for in-flight tasks
// until the context expires.
func (r *Root) Shutdown(ctx context.Context) error {
	r.cpu.shutdown()
	r.io.shutdown()
	return multierr.Combine(r.cpu.Wait(ctx), r.io.Wait(ctx))
}
