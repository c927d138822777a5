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

	"github.com/tochemey/orbit/node"
)

// Envelope is the framed unit a carrier moves between nodes. The payload is
// opaque to the carrier; the runtime owns its encoding.
type Envelope struct {
	To      node.Identity
	From    node.Identity
	Payload []byte
}

// Receiver consumes inbound envelopes and feeds them to the inbound
// pipeline. Implementations must not block the carrier for long.
type Receiver func(ctx context.Context, envelope *Envelope)

// Transport is a pluggable message carrier. Delivery is at-most-once per
// send attempt; the runtime never relies on carrier-level retries.
type Transport interface {
	// Start connects the carrier and installs the receive callback.
	Start(ctx context.Context, receiver Receiver) error

	// Send hands one envelope to the carrier.
	Send(ctx context.Context, envelope *Envelope) error

	// Stop disconnects the carrier. No receive callback runs after Stop
	// returns.
	Stop(ctx context.Context) error
}
