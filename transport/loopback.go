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

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/node"
)

// Hub connects loopback transports living in the same process. It plays the
// role of the wire for single-process clusters and tests.
type Hub struct {
	mu     sync.RWMutex
	routes map[node.Identity]Receiver
}

// NewHub creates an empty loopback hub.
func NewHub() *Hub {
	return &Hub{
		routes: make(map[node.Identity]Receiver),
	}
}

func (h *Hub) register(identity node.Identity, receiver Receiver) {
	h.mu.Lock()
	h.routes[identity] = receiver
	h.mu.Unlock()
}

func (h *Hub) deregister(identity node.Identity) {
	h.mu.Lock()
	delete(h.routes, identity)
	h.mu.Unlock()
}

func (h *Hub) deliver(ctx context.Context, envelope *Envelope) error {
	h.mu.RLock()
	receiver, ok := h.routes[envelope.To]
	h.mu.RUnlock()
	if !ok {
		return errors.NewErrTransport(fmt.Errorf("unknown node %s", envelope.To))
	}
	go receiver(ctx, envelope)
	return nil
}

// Loopback is an in-process Transport delivering envelopes through a Hub.
type Loopback struct {
	hub     *Hub
	local   node.Identity
	mu      sync.Mutex
	started bool
}

// enforce compilation error
var _ Transport = (*Loopback)(nil)

// NewLoopback creates a loopback transport for the given node.
func NewLoopback(hub *Hub, local node.Identity) *Loopback {
	return &Loopback{
		hub:   hub,
		local: local,
	}
}

// Start installs the receive callback on the hub.
func (l *Loopback) Start(_ context.Context, receiver Receiver) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}
	l.hub.register(l.local, receiver)
	l.started = true
	return nil
}

// Send delivers the envelope to the target node's receiver.
func (l *Loopback) Send(ctx context.Context, envelope *Envelope) error {
	return l.hub.deliver(ctx, envelope)
}

// Stop removes the node from the hub.
func (l *Loopback) Stop(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		return nil
	}
	l.hub.deregister(l.local)
	l.started = false
	return nil
}
