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

	"golang.org/x/sync/semaphore"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/node"
	"github.com/tochemey/orbit/transport"
)

// Step is one stage of the message pipeline. Steps are traversed in order on
// the way out and in reverse on the way in. A step either terminates the
// message, transforms it and calls the next step, or absorbs it.
type Step interface {
	// Name returns the step name.
	Name() string
	// OnOutbound processes a message moving toward the transport.
	OnOutbound(ctx context.Context, tc *Traversal, message *Message) error
	// OnInbound processes a message moving toward the execution system.
	OnInbound(ctx context.Context, tc *Traversal, message *Message) error
}

// Traversal tracks the position of one message inside the step chain.
type Traversal struct {
	pipeline *Pipeline
	index    int
}

// NextOutbound forwards the message to the next step toward the transport.
// Beyond the last step the traversal ends.
func (tc *Traversal) NextOutbound(ctx context.Context, message *Message) error {
	next := tc.index + 1
	if next >= len(tc.pipeline.steps) {
		return nil
	}
	return tc.pipeline.steps[next].OnOutbound(ctx, &Traversal{pipeline: tc.pipeline, index: next}, message)
}

// NextInbound forwards the message to the next step toward the execution
// system. Before the first step the message reaches the inbound sink.
func (tc *Traversal) NextInbound(ctx context.Context, message *Message) error {
	next := tc.index - 1
	if next < 0 {
		return tc.pipeline.sink(ctx, message)
	}
	return tc.pipeline.steps[next].OnInbound(ctx, &Traversal{pipeline: tc.pipeline, index: next}, message)
}

// SwitchInbound short-circuits an outbound message into the inbound
// direction at the current position, skipping the steps between here and the
// wire in both directions.
func (tc *Traversal) SwitchInbound(ctx context.Context, message *Message) error {
	return tc.NextInbound(ctx, message)
}

// Sink consumes messages that traversed the whole inbound chain.
type Sink func(ctx context.Context, message *Message) error

// Pipeline is the ordered, fixed chain of steps between the runtime and the
// transport. Admission is bounded: each message occupies one in-flight slot
// for its full traversal, and submission fails fast with
// ErrCapacityExceeded once the configured capacity is reached.
type Pipeline struct {
	steps     []Step
	admission *semaphore.Weighted
	sink      Sink
}

func newPipeline(bufferCount int, sink Sink, steps ...Step) *Pipeline {
	return &Pipeline{
		steps:     steps,
		admission: semaphore.NewWeighted(int64(bufferCount)),
		sink:      sink,
	}
}

// Outbound pushes a message through the chain toward the transport. An error
// anywhere in the traversal settles the originating completion for request
// messages and is returned to the submitter.
func (p *Pipeline) Outbound(ctx context.Context, message *Message) error {
	if !p.admission.TryAcquire(1) {
		p.failRequest(message, errors.ErrCapacityExceeded)
		return errors.ErrCapacityExceeded
	}
	defer p.admission.Release(1)

	tc := &Traversal{pipeline: p, index: -1}
	if err := tc.NextOutbound(ctx, message); err != nil {
		p.failRequest(message, err)
		return err
	}
	return nil
}

// Inbound pushes a received envelope through the chain toward the execution
// system, entering at the transport step.
func (p *Pipeline) Inbound(ctx context.Context, envelope *transport.Envelope) error {
	if !p.admission.TryAcquire(1) {
		return errors.ErrCapacityExceeded
	}
	defer p.admission.Release(1)

	message := &Message{
		Source: envelope.From,
		Target: node.Unicast(envelope.To),
		wire:   envelope.Payload,
	}
	tc := &Traversal{pipeline: p, index: len(p.steps)}
	return tc.NextInbound(ctx, message)
}

// failRequest settles the pending completion of an outbound request that
// could not complete its traversal.
func (p *Pipeline) failRequest(message *Message, err error) {
	if message.IsRequest() && message.completion != nil {
		message.completion.Failure(err)
	}
}
