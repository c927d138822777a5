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

	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/internal/clock"
	"github.com/tochemey/orbit/log"
	"github.com/tochemey/orbit/transport"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of the stage.
	Apply(stage *Stage)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Stage)

// Apply sets the Option value of the stage.
func (f OptionFunc) Apply(stage *Stage) {
	f(stage)
}

// WithConfig replaces the whole stage config.
func WithConfig(config *Config) Option {
	return OptionFunc(func(s *Stage) {
		s.config = config
	})
}

// WithClusterName sets the cluster the node joins.
func WithClusterName(name string) Option {
	return OptionFunc(func(s *Stage) {
		s.config.ClusterName = name
	})
}

// WithNodeIdentity sets the node identity.
func WithNodeIdentity(identity string) Option {
	return OptionFunc(func(s *Stage) {
		s.config.NodeIdentity = identity
	})
}

// WithClientMode makes the node route invocations without hosting instances.
func WithClientMode() Option {
	return OptionFunc(func(s *Stage) {
		s.config.NodeMode = "client"
	})
}

// WithLogger sets the stage custom logger.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(s *Stage) {
		s.logger = logger
	})
}

// WithClock sets the time source. Tests install a manual clock to drive
// deactivation and timeout sweeps deterministically.
func WithClock(clk clock.Clock) Option {
	return OptionFunc(func(s *Stage) {
		s.clock = clk
	})
}

// WithDirectoryBackend sets the cluster directory backend.
func WithDirectoryBackend(backend directory.Backend) Option {
	return OptionFunc(func(s *Stage) {
		s.backend = backend
	})
}

// WithTransport sets the message carrier.
func WithTransport(carrier transport.Transport) Option {
	return OptionFunc(func(s *Stage) {
		s.transport = carrier
	})
}

// WithSerializer sets the wire codec.
func WithSerializer(serializer Serializer) Option {
	return OptionFunc(func(s *Stage) {
		s.serializer = serializer
	})
}

// WithErrorHandler installs the process-wide error handler receiving orphan
// background failures.
func WithErrorHandler(handler func(error)) Option {
	return OptionFunc(func(s *Stage) {
		s.errorHandler = handler
	})
}

// WithPlacementStrategy sets the strategy proposing new placements.
func WithPlacementStrategy(strategy PlacementStrategy) Option {
	return OptionFunc(func(s *Stage) {
		s.strategy = strategy
	})
}

// WithTickRate sets the maintenance tick period.
func WithTickRate(rate time.Duration) Option {
	return OptionFunc(func(s *Stage) {
		s.config.TickRate = rate
	})
}

// WithTimeToLive sets the default idle deactivation window.
func WithTimeToLive(ttl time.Duration) Option {
	return OptionFunc(func(s *Stage) {
		s.config.TimeToLive = ttl
	})
}

// WithMessageTimeout sets the default invocation round-trip bound.
func WithMessageTimeout(timeout time.Duration) Option {
	return OptionFunc(func(s *Stage) {
		s.config.MessageTimeout = timeout
	})
}

// WithPipelineBufferCount bounds the pipeline admission queue.
func WithPipelineBufferCount(count int) Option {
	return OptionFunc(func(s *Stage) {
		s.config.PipelineBufferCount = count
	})
}

// WithMailboxCapacity bounds each handler mailbox.
func WithMailboxCapacity(capacity int) Option {
	return OptionFunc(func(s *Stage) {
		s.config.MailboxCapacity = capacity
	})
}

// WithShutdownTimeout bounds the parallel deactivation on stop.
func WithShutdownTimeout(timeout time.Duration) Option {
	return OptionFunc(func(s *Stage) {
		s.config.ShutdownTimeout = timeout
	})
}

// WithCompression enables zstd wire compression.
func WithCompression() Option {
	return OptionFunc(func(s *Stage) {
		s.config.Compression = true
	})
}
