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

package addressable

import (
	"context"
	"time"
)

// Addressable is the contract of an addressable instance. The runtime
// dispatches every invocation for a given reference to a single instance,
// one method call at a time.
type Addressable interface {
	// Invoke dispatches one method call on the instance. The method id and
	// arguments come from the remote invocation verbatim.
	Invoke(ctx context.Context, method string, args []any) (any, error)
}

// Activatable is implemented by instances that want a lifecycle hook when
// they are brought into memory.
type Activatable interface {
	// OnActivate runs before the first invocation is dispatched.
	OnActivate(ctx context.Context) error
}

// Deactivatable is implemented by instances that want a lifecycle hook when
// they are removed from memory.
type Deactivatable interface {
	// OnDeactivate runs after the last invocation, before the instance is
	// dropped. It is best-effort: a failure is logged, not propagated.
	OnDeactivate(ctx context.Context) error
}

// Factory creates a fresh instance of an addressable interface. It is the
// registration-map replacement for reflective instance creation: the
// capability registry is its sole consumer.
type Factory func() Addressable

// Definition is the static metadata of an addressable interface, derived
// once at registration and immutable thereafter.
type Definition struct {
	// Interface is the interface id the definition describes.
	Interface string
	// AutoActivate activates an instance on demand when an invocation
	// arrives and no instance is live.
	AutoActivate bool
	// AutoDeactivate deactivates idle instances after TimeToLive.
	AutoDeactivate bool
	// Persistent is carried on the definition only; placement and
	// deactivation do not read it, and an idle deactivation releases the
	// placement whatever its value.
	Persistent bool
	// PreferLocal places new activations on the calling node when it can
	// host the interface.
	PreferLocal bool
	// Timeout bounds a single invocation round-trip. Zero means the stage
	// message timeout.
	Timeout time.Duration
	// TimeToLive is the idle time after which an instance is deactivated.
	// Zero means the stage default.
	TimeToLive time.Duration
	// Factory creates instances of the interface.
	Factory Factory
}

// Invocation is one actor method call.
type Invocation struct {
	// Reference identifies the target addressable.
	Reference Reference
	// Method is the method id to dispatch.
	Method string
	// Args carries the method arguments.
	Args []any
	// Headers carries opaque per-call metadata.
	Headers map[string]string
}
