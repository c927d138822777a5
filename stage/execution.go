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

	"golang.org/x/sync/errgroup"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
	"github.com/tochemey/orbit/internal/clock"
	"github.com/tochemey/orbit/internal/syncmap"
	"github.com/tochemey/orbit/log"
)

// ExecutionSystem owns the local addressable lifecycle: it maps live
// references to their handlers, activates instances on demand, and sweeps
// idle handlers on every tick.
type ExecutionSystem struct {
	active       *syncmap.SyncMap[string, *handler]
	capabilities *Capabilities
	directory    *directory.Directory
	clock        clock.Clock
	logger       log.Logger
	errorHandler func(error)
	config       *Config

	runCtx    context.Context
	runCancel context.CancelFunc
}

func newExecutionSystem(capabilities *Capabilities, dir *directory.Directory, clk clock.Clock, logger log.Logger, errorHandler func(error), config *Config) *ExecutionSystem {
	return &ExecutionSystem{
		active:       syncmap.New[string, *handler](),
		capabilities: capabilities,
		directory:    dir,
		clock:        clk,
		logger:       logger,
		errorHandler: errorHandler,
		config:       config,
	}
}

// start arms the system with the stage run context. Handler loops observe
// its cancellation as the shutdown grace deadline.
func (x *ExecutionSystem) start(ctx context.Context) {
	x.runCtx, x.runCancel = context.WithCancel(context.WithoutCancel(ctx))
}

// HandleInvocation resolves the handler for the invocation, creating one when
// the interface auto-activates, and enqueues the call. All failures settle
// the given completion.
func (x *ExecutionSystem) HandleInvocation(_ context.Context, invocation *addressable.Invocation, completion *future.Completion) {
	reference := invocation.Reference
	definition, ok := x.capabilities.Definition(reference.Interface())
	if !ok {
		completion.Failure(errors.ErrNoActiveAddressable)
		return
	}

	key := reference.String()
	h, found := x.active.Get(key)
	if !found {
		if !definition.AutoActivate {
			completion.Failure(errors.ErrNoActiveAddressable)
			return
		}

		var loaded bool
		h, loaded = x.active.GetOrSet(key, func() *handler {
			return newHandler(x, reference, definition, definition.Factory(), false)
		})
		if !loaded {
			go h.run(x.runCtx)
		}
	}

	if err := h.post(invocation, completion); err != nil {
		completion.Failure(err)
	}
}

// RegisterSingleton installs an addressable whose lifecycle is externally
// managed: it never auto-activates or auto-deactivates. The placement is
// recorded immediately.
func (x *ExecutionSystem) RegisterSingleton(ctx context.Context, reference addressable.Reference, instance addressable.Addressable) error {
	if err := reference.Validate(); err != nil {
		return err
	}
	definition, ok := x.capabilities.Definition(reference.Interface())
	if !ok {
		return errors.ErrInterfaceNotRegistered
	}

	h, loaded := x.active.GetOrSet(reference.String(), func() *handler {
		return newHandler(x, reference, definition, instance, true)
	})
	if loaded {
		return errors.ErrInterfaceAlreadyRegistered
	}

	if err := x.directory.ForcePlaceLocal(ctx, reference); err != nil {
		x.active.Delete(reference.String())
		return err
	}

	go h.run(x.runCtx)
	return nil
}

// OnTick sweeps handlers whose idle time exceeded their time-to-live and
// signals them to deactivate. The in-flight invocation, if any, completes
// first.
func (x *ExecutionSystem) OnTick(now int64) {
	x.active.Range(func(_ string, h *handler) {
		timeToLive := h.definition.TimeToLive
		if timeToLive <= 0 {
			timeToLive = x.config.TimeToLive
		}
		if h.idleSince(now, timeToLive) {
			h.requestDeactivate()
		}
	})
}

// Shutdown deactivates every live handler in parallel, bounded by the
// configured ShutdownTimeout; the deadline and cancellation of ctx are not
// observed. Once the wait ends the run context is canceled so that in-flight
// invocations observe cancellation.
func (x *ExecutionSystem) Shutdown(ctx context.Context) error {
	handlers := x.active.Values()

	grace, cancel := context.WithTimeout(context.WithoutCancel(ctx), x.config.ShutdownTimeout)
	defer cancel()

	eg, _ := errgroup.WithContext(grace)
	for _, h := range handlers {
		h := h
		eg.Go(func() error {
			h.requestDeactivate()
			select {
			case <-h.done:
				return nil
			case <-grace.Done():
				return grace.Err()
			}
		})
	}

	err := eg.Wait()
	if x.runCancel != nil {
		x.runCancel()
	}
	return err
}

// ActiveCount returns the number of live handlers.
func (x *ExecutionSystem) ActiveCount() int {
	return x.active.Len()
}

// remove drops the handler from the active map. Only the handler's own loop
// calls it, once, on the way to the dead state.
func (x *ExecutionSystem) remove(h *handler) {
	x.active.DeleteIf(h.reference.String(), func(current *handler) bool {
		return current == h
	})
}

func (x *ExecutionSystem) reportError(err error) {
	if err == nil || isContextError(err) {
		return
	}
	x.logger.Error(err)
	if x.errorHandler != nil {
		x.errorHandler(err)
	}
}
