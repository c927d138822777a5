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
	"context"
	goerrors "errors"
	"fmt"
	"runtime"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
)

// handler states. Transitions only move forward along
// created → activating → active ↔ invoking → deactivating → dead.
const (
	created int32 = iota
	activating
	active
	invoking
	deactivating
	dead
)

// handler owns one addressable instance on this node. It serializes every
// invocation for its reference through a single loop: the instance never
// escapes and no two invocations overlap.
type handler struct {
	reference  addressable.Reference
	definition *addressable.Definition
	instance   addressable.Addressable
	singleton  bool

	state        atomic.Int32
	lastActivity atomic.Int64

	mailbox          *mailbox
	signal           chan struct{}
	deactivateSignal chan struct{}
	done             chan struct{}

	execution *ExecutionSystem
}

func newHandler(execution *ExecutionSystem, reference addressable.Reference, definition *addressable.Definition, instance addressable.Addressable, singleton bool) *handler {
	h := &handler{
		reference:        reference,
		definition:       definition,
		instance:         instance,
		singleton:        singleton,
		mailbox:          newMailbox(execution.config.MailboxCapacity),
		signal:           make(chan struct{}, 1),
		deactivateSignal: make(chan struct{}, 1),
		done:             make(chan struct{}),
		execution:        execution,
	}
	h.state.Store(created)
	h.lastActivity.Store(execution.clock.Now())
	return h
}

// post enqueues one invocation onto the handler mailbox and wakes the loop.
func (h *handler) post(invocation *addressable.Invocation, completion *future.Completion) error {
	if h.state.Load() >= deactivating {
		return errors.ErrDeactivating
	}
	if err := h.mailbox.Enqueue(&invocationCell{invocation: invocation, completion: completion}); err != nil {
		return err
	}
	// the loop may have started deactivating between the state check and the
	// enqueue; settle here so the cell cannot leak unsettled. A double settle
	// against the drain is a no-op.
	if h.state.Load() >= deactivating {
		completion.Failure(errors.ErrDeactivating)
		return errors.ErrDeactivating
	}
	h.notify()
	return nil
}

func (h *handler) notify() {
	select {
	case h.signal <- struct{}{}:
	default:
	}
}

// requestDeactivate signals the loop to deactivate after the in-flight
// invocation, if any, completes.
func (h *handler) requestDeactivate() {
	select {
	case h.deactivateSignal <- struct{}{}:
	default:
	}
}

// run is the per-handler serialized worker loop. It is the only goroutine
// that touches the instance.
func (h *handler) run(ctx context.Context) {
	defer close(h.done)

	if !h.singleton {
		h.state.Store(activating)
		if err := h.activate(ctx); err != nil {
			h.abortActivation(ctx, err)
			return
		}
	}
	h.state.Store(active)

	for {
		h.drain(ctx)
		select {
		case <-h.signal:
		case <-h.deactivateSignal:
			h.deactivate(ctx)
			return
		case <-ctx.Done():
			h.deactivate(ctx)
			return
		}
	}
}

// drain processes queued invocations one at a time in FIFO order.
func (h *handler) drain(ctx context.Context) {
	for {
		cell := h.mailbox.Dequeue()
		if cell == nil {
			return
		}

		h.state.Store(invoking)
		value, err := h.invoke(ctx, cell.invocation)
		if err != nil {
			cell.completion.Failure(err)
		} else {
			cell.completion.Success(value)
		}
		h.lastActivity.Store(h.execution.clock.Now())
		h.state.Store(active)
	}
}

func (h *handler) invoke(ctx context.Context, invocation *addressable.Invocation) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			pc, fn, line, _ := runtime.Caller(2)
			err = errors.NewPanicError(
				fmt.Errorf("%w at %s[%s:%d]", cause, runtime.FuncForPC(pc).Name(), fn, line),
			)
		}
	}()
	return h.instance.Invoke(ctx, invocation.Method, invocation.Args)
}

// activate runs the OnActivate hook with bounded retries.
func (h *handler) activate(ctx context.Context) error {
	logger := h.execution.logger
	logger.Infof("activating addressable %s ...", h.reference.String())

	activatable, ok := h.instance.(addressable.Activatable)
	if !ok {
		logger.Infof("addressable %s successfully activated.", h.reference.String())
		return nil
	}

	config := h.execution.config
	cctx, cancel := context.WithTimeout(ctx, config.ActivationTimeout)
	defer cancel()

	retrier := retry.NewRetrier(config.ActivationMaxRetries, time.Millisecond, config.ActivationTimeout)
	if err := retrier.RunContext(cctx, func(ctx context.Context) error {
		return activatable.OnActivate(ctx)
	}); err != nil {
		logger.Errorf("addressable %s activation failed.", h.reference.String())
		return errors.NewErrActivationFailure(err)
	}

	logger.Infof("addressable %s successfully activated.", h.reference.String())
	return nil
}

// abortActivation fails every queued completion, releases the placement and
// removes the handler.
func (h *handler) abortActivation(ctx context.Context, cause error) {
	h.state.Store(dead)
	h.failPending(cause)
	h.execution.remove(h)
	if err := h.execution.directory.RemoveIfLocal(ctx, h.reference); err != nil {
		h.execution.logger.Warnf("failed to release placement of %s: %v", h.reference.String(), err)
	}
	h.mailbox.Dispose()
}

// deactivate drains the mailbox by failing the remaining completions, runs
// the OnDeactivate hook best-effort and releases the placement.
func (h *handler) deactivate(ctx context.Context) {
	logger := h.execution.logger
	logger.Infof("deactivating addressable %s ...", h.reference.String())

	h.state.Store(deactivating)
	h.failPending(errors.ErrDeactivating)

	if deactivatable, ok := h.instance.(addressable.Deactivatable); ok && !h.singleton {
		if err := deactivatable.OnDeactivate(ctx); err != nil {
			h.execution.reportError(errors.NewErrDeactivationFailure(fmt.Errorf("%s: %w", h.reference.String(), err)))
		}
	}

	h.state.Store(dead)
	h.execution.remove(h)
	if err := h.execution.directory.RemoveIfLocal(ctx, h.reference); err != nil {
		logger.Warnf("failed to release placement of %s: %v", h.reference.String(), err)
	}

	// late producers fail on the disposed mailbox instead of leaking
	h.mailbox.Dispose()

	logger.Infof("addressable %s successfully deactivated.", h.reference.String())
}

func (h *handler) failPending(cause error) {
	for {
		cell := h.mailbox.Dequeue()
		if cell == nil {
			return
		}
		cell.completion.Failure(cause)
	}
}

// idleSince reports whether the handler has been idle past the given
// time-to-live at the given instant. The tick sweep is the only reader.
func (h *handler) idleSince(now int64, timeToLive time.Duration) bool {
	if h.singleton || !h.definition.AutoDeactivate {
		return false
	}
	if h.state.Load() != active {
		return false
	}
	return now-h.lastActivity.Load() > timeToLive.Milliseconds()
}

// isContextError returns true for cooperative cancellation errors.
func isContextError(err error) bool {
	return goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded)
}
