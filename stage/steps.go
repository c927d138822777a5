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
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/atomic"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/internal/clock"
	"github.com/tochemey/orbit/log"
	"github.com/tochemey/orbit/node"
	"github.com/tochemey/orbit/transport"
)

// identityStep stamps the per-node message id, the source node and the send
// timestamp on every outbound message.
type identityStep struct {
	ids   *atomic.Uint64
	local node.Identity
	clock clock.Clock
}

func (s *identityStep) Name() string { return "identity" }

func (s *identityStep) OnOutbound(ctx context.Context, tc *Traversal, message *Message) error {
	message.ID = s.ids.Inc()
	message.Source = s.local
	message.SentAt = s.clock.Now()
	return tc.NextOutbound(ctx, message)
}

func (s *identityStep) OnInbound(ctx context.Context, tc *Traversal, message *Message) error {
	return tc.NextInbound(ctx, message)
}

// trackingStep registers outbound requests with the response tracker and
// absorbs inbound responses by settling the pending completion.
type trackingStep struct {
	tracker      *ResponseTracker
	capabilities *Capabilities
	config       *Config
}

func (s *trackingStep) Name() string { return "response-tracking" }

func (s *trackingStep) OnOutbound(ctx context.Context, tc *Traversal, message *Message) error {
	if message.IsRequest() && message.completion != nil {
		if err := s.tracker.Track(message.ID, message.completion, s.timeoutFor(message)); err != nil {
			return err
		}
	}
	return tc.NextOutbound(ctx, message)
}

func (s *trackingStep) OnInbound(ctx context.Context, tc *Traversal, message *Message) error {
	switch message.Kind {
	case KindResponseValue:
		s.tracker.Settle(message.Correlation, message.Value, nil)
		return nil
	case KindResponseError:
		s.tracker.Settle(message.Correlation, nil, decodeError(message.ErrorText))
		return nil
	default:
		return tc.NextInbound(ctx, message)
	}
}

func (s *trackingStep) timeoutFor(message *Message) time.Duration {
	if message.timeout > 0 {
		return message.timeout
	}
	if definition, ok := s.capabilities.Definition(message.Invocation.Reference.Interface()); ok && definition.Timeout > 0 {
		return definition.Timeout
	}
	return s.config.MessageTimeout
}

// routingStep resolves the target node of outbound requests.
type routingStep struct {
	router *Router
}

func (s *routingStep) Name() string { return "routing" }

func (s *routingStep) OnOutbound(ctx context.Context, tc *Traversal, message *Message) error {
	if message.IsRequest() {
		target, err := s.router.Route(ctx, message.Target, message.Invocation.Reference)
		if err != nil {
			return err
		}
		message.Target = target
	}
	return tc.NextOutbound(ctx, message)
}

func (s *routingStep) OnInbound(ctx context.Context, tc *Traversal, message *Message) error {
	return tc.NextInbound(ctx, message)
}

// localDispatchStep short-circuits messages targeting the local node into
// the inbound direction, skipping serialization and the transport.
type localDispatchStep struct {
	local node.Identity
}

func (s *localDispatchStep) Name() string { return "local-dispatch" }

func (s *localDispatchStep) OnOutbound(ctx context.Context, tc *Traversal, message *Message) error {
	if target, ok := message.Target.Unicast(); ok && target == s.local {
		return tc.SwitchInbound(ctx, message)
	}
	return tc.NextOutbound(ctx, message)
}

func (s *localDispatchStep) OnInbound(ctx context.Context, tc *Traversal, message *Message) error {
	return tc.NextInbound(ctx, message)
}

// serializationStep encodes the message on the way out and decodes the wire
// payload on the way in.
type serializationStep struct {
	serializer Serializer
}

func (s *serializationStep) Name() string { return "serialization" }

func (s *serializationStep) OnOutbound(ctx context.Context, tc *Traversal, message *Message) error {
	wire, err := s.serializer.Encode(message)
	if err != nil {
		return err
	}
	message.wire = wire
	return tc.NextOutbound(ctx, message)
}

func (s *serializationStep) OnInbound(ctx context.Context, tc *Traversal, message *Message) error {
	decoded, err := s.serializer.Decode(message.wire)
	if err != nil {
		return err
	}
	decoded.Source = message.Source
	return tc.NextInbound(ctx, decoded)
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compressionStep compresses the wire payload with zstd.
type compressionStep struct{}

func (s *compressionStep) Name() string { return "compression" }

func (s *compressionStep) OnOutbound(ctx context.Context, tc *Traversal, message *Message) error {
	message.wire = zstdEncoder.EncodeAll(message.wire, nil)
	return tc.NextOutbound(ctx, message)
}

func (s *compressionStep) OnInbound(ctx context.Context, tc *Traversal, message *Message) error {
	wire, err := zstdDecoder.DecodeAll(message.wire, nil)
	if err != nil {
		return err
	}
	message.wire = wire
	return tc.NextInbound(ctx, message)
}

// transportStep hands outbound messages to the carrier. It is the entry
// point of the inbound direction.
type transportStep struct {
	transport transport.Transport
	local     node.Identity
	logger    log.Logger
}

func (s *transportStep) Name() string { return "transport" }

func (s *transportStep) OnOutbound(ctx context.Context, _ *Traversal, message *Message) error {
	target, ok := message.Target.Unicast()
	if !ok {
		return errors.ErrNoAvailableNode
	}
	return s.transport.Send(ctx, &transport.Envelope{
		To:      target,
		From:    s.local,
		Payload: message.wire,
	})
}

func (s *transportStep) OnInbound(ctx context.Context, tc *Traversal, message *Message) error {
	return tc.NextInbound(ctx, message)
}
