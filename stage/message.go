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
	"time"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/future"
	"github.com/tochemey/orbit/node"
)

// Kind discriminates the message variants moving through the pipeline.
type Kind int

const (
	// KindRequest carries one addressable invocation.
	KindRequest Kind = iota
	// KindResponseValue carries the successful result of an invocation.
	KindResponseValue
	// KindResponseError carries the failure of an invocation.
	KindResponseError
)

// Message is the pipeline payload. Requests carry an invocation and, on the
// origin node, the caller completion; responses carry the correlation id of
// the request they answer.
type Message struct {
	// Kind discriminates the variant.
	Kind Kind
	// ID is unique per node for the node's lifetime.
	ID uint64
	// Correlation is the request id a response answers.
	Correlation uint64
	// Source is the node the message originates from.
	Source node.Identity
	// Target designates the destination. Requests start with no placement;
	// the routing step decides it.
	Target node.Target
	// SentAt is the send timestamp in milliseconds.
	SentAt int64
	// Invocation is set on requests.
	Invocation *addressable.Invocation
	// Value is set on value responses.
	Value any
	// ErrorText is set on error responses.
	ErrorText string

	// wire holds the encoded payload: filled by the serialization step on
	// the way out, consumed by it on the way in.
	wire []byte
	// completion is the caller completion on the origin node. It never
	// crosses the wire.
	completion *future.Completion
	// timeout is the per-call timeout override.
	timeout time.Duration
}

func newRequestMessage(invocation *addressable.Invocation, completion *future.Completion, timeout time.Duration) *Message {
	return &Message{
		Kind:       KindRequest,
		Target:     node.AnyTarget(),
		Invocation: invocation,
		completion: completion,
		timeout:    timeout,
	}
}

func newValueResponse(request *Message, value any) *Message {
	return &Message{
		Kind:        KindResponseValue,
		Correlation: request.ID,
		Target:      node.Unicast(request.Source),
		Value:       value,
	}
}

func newErrorResponse(request *Message, err error) *Message {
	return &Message{
		Kind:        KindResponseError,
		Correlation: request.ID,
		Target:      node.Unicast(request.Source),
		ErrorText:   err.Error(),
	}
}

// IsRequest returns true for invocation messages.
func (m *Message) IsRequest() bool {
	return m.Kind == KindRequest
}

// IsResponse returns true for value and error responses.
func (m *Message) IsResponse() bool {
	return m.Kind == KindResponseValue || m.Kind == KindResponseError
}
