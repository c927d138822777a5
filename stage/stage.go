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
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
	"github.com/tochemey/orbit/internal/clock"
	"github.com/tochemey/orbit/internal/pool"
	"github.com/tochemey/orbit/internal/ticker"
	"github.com/tochemey/orbit/log"
	"github.com/tochemey/orbit/node"
	"github.com/tochemey/orbit/transport"
)

// Stage is the per-node runtime. It composes the directory façade, the
// router, the message pipeline, the response tracker and the execution
// system, owns their lifecycle, and drives the periodic maintenance tick.
type Stage struct {
	config       *Config
	logger       log.Logger
	clock        clock.Clock
	serializer   Serializer
	strategy     PlacementStrategy
	errorHandler func(error)

	backend   directory.Backend
	transport transport.Transport

	registry     *registry
	capabilities *Capabilities
	netSystem    *node.NetSystem
	directory    *directory.Directory
	tracker      *ResponseTracker
	execution    *ExecutionSystem
	router       *Router
	pipeline     *Pipeline
	scheduler    *Scheduler
	pools        *pool.Root
	tick         *ticker.Ticker

	ids     atomic.Uint64
	started atomic.Bool

	runCtx    context.Context
	runCancel context.CancelFunc
	tickStop  chan struct{}
	tickDone  chan struct{}
}

// NewStage creates a stage from the given options. Interfaces must be
// registered before Start; the stage derives its capability set from them.
func NewStage(opts ...Option) (*Stage, error) {
	s := &Stage{
		config:     DefaultConfig(),
		logger:     log.DefaultLogger,
		clock:      clock.NewSystem(),
		serializer: NewJSONSerializer(),
	}
	for _, opt := range opts {
		opt.Apply(s)
	}

	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.errorHandler == nil {
		s.errorHandler = func(err error) { s.logger.Error(err) }
	}
	if s.backend == nil {
		s.backend = directory.NewMemoryBackend()
	}
	if s.strategy == nil {
		s.strategy = NewRoundRobin()
	}

	identity := node.Identity(s.config.NodeIdentity)
	if s.transport == nil {
		s.transport = transport.NewLoopback(transport.NewHub(), identity)
	}

	// phase one: build and register the components. Late-bound links
	// resolve against the registry during start.
	s.registry = newComponentRegistry()
	s.capabilities = NewCapabilities()
	s.netSystem = node.NewNetSystem(node.NewInfo(s.config.ClusterName, identity, s.config.Mode()))
	s.directory = directory.New(s.backend, identity)
	s.tracker = newResponseTracker(s.clock, s.logger)
	s.pools = pool.NewRoot(s.errorHandler)
	s.execution = newExecutionSystem(s.capabilities, s.directory, s.clock, s.logger, s.errorHandler, s.config)
	s.router = newRouter(s.netSystem, s.directory, s.capabilities, s.strategy)
	s.scheduler = newScheduler(s, s.logger)
	s.tick = ticker.New(s.config.TickRate)

	s.registry.register(componentNetSystem, s.netSystem)
	s.registry.register(componentDirectory, s.directory)
	s.registry.register(componentTracker, s.tracker)
	s.registry.register(componentExecution, s.execution)
	s.registry.register(componentRouter, s.router)
	s.registry.register(componentScheduler, s.scheduler)
	s.registry.register(componentTransport, s.transport)
	s.registry.register(componentSerializer, s.serializer)

	return s, nil
}

// Register installs the definition of an addressable interface. Definitions
// must be registered before the stage starts.
func (s *Stage) Register(definition *addressable.Definition) error {
	if s.Running() {
		return errors.ErrStageAlreadyStarted
	}
	return s.capabilities.Register(definition)
}

// RegisterSingleton installs an addressable instance whose lifecycle is
// externally managed: it never auto-activates or auto-deactivates.
func (s *Stage) RegisterSingleton(ctx context.Context, reference addressable.Reference, instance addressable.Addressable) error {
	if !s.Running() {
		return errors.ErrStageNotRunning
	}
	return s.execution.RegisterSingleton(ctx, reference, instance)
}

// ProxyFactory returns the factory minting client proxies.
func (s *Stage) ProxyFactory() *ProxyFactory {
	return &ProxyFactory{stage: s}
}

// Proxy returns a client proxy on the addressable identified by the given
// interface id and key.
func (s *Stage) Proxy(interfaceID, key string) *Proxy {
	return s.ProxyFactory().GetReference(interfaceID, key)
}

// Scheduler returns the invocation scheduler.
func (s *Stage) Scheduler() *Scheduler {
	return s.scheduler
}

// NetSystem returns the node identity and membership view.
func (s *Stage) NetSystem() *node.NetSystem {
	return s.netSystem
}

// Running returns true while the stage serves invocations.
func (s *Stage) Running() bool {
	return s.started.Load()
}

// Start brings the stage to the running state: it derives the capability
// set, resolves the pipeline, connects the transport and launches the tick
// task. The returned completion settles once the stage runs.
func (s *Stage) Start(ctx context.Context) *future.Completion {
	return future.Run(func() (any, error) {
		return nil, s.start(ctx)
	})
}

func (s *Stage) start(_ context.Context) error {
	status := s.netSystem.Status()
	if status != node.Idle && status != node.Stopped {
		return errors.ErrStageAlreadyStarted
	}

	s.logger.Infof("starting stage %s in cluster %s ...", s.config.NodeIdentity, s.config.ClusterName)
	s.netSystem.SetStatus(node.Starting)

	// capability scan: hosting nodes advertise every registered interface
	if s.config.Mode() == node.Host {
		local := s.netSystem.Local()
		s.capabilities.Interfaces().Each(func(interfaceID string) bool {
			local.Capabilities.Add(interfaceID)
			return false
		})
	}

	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	s.tickStop = make(chan struct{})
	s.tickDone = make(chan struct{})

	s.execution.start(s.runCtx)
	s.resolvePipeline()

	if err := s.transport.Start(s.runCtx, s.receive); err != nil {
		s.netSystem.SetStatus(node.Stopped)
		return err
	}
	s.scheduler.start(s.runCtx)

	s.netSystem.SetStatus(node.Running)
	s.started.Store(true)

	s.tick.Start()
	go s.tickLoop()

	s.logger.Infof("stage %s successfully started.", s.config.NodeIdentity)
	return nil
}

// resolvePipeline is the second registry phase: the step chain binds the
// components registered at construction.
func (s *Stage) resolvePipeline() {
	router, _ := registryGet[*Router](s.registry, componentRouter)
	tracker, _ := registryGet[*ResponseTracker](s.registry, componentTracker)
	carrier, _ := registryGet[transport.Transport](s.registry, componentTransport)
	serializer, _ := registryGet[Serializer](s.registry, componentSerializer)
	local := s.netSystem.Local().Identity

	steps := []Step{
		&identityStep{ids: &s.ids, local: local, clock: s.clock},
		&trackingStep{tracker: tracker, capabilities: s.capabilities, config: s.config},
		&routingStep{router: router},
		&localDispatchStep{local: local},
		&serializationStep{serializer: serializer},
	}
	if s.config.Compression {
		steps = append(steps, &compressionStep{})
	}
	steps = append(steps, &transportStep{transport: carrier, local: local, logger: s.logger})

	s.pipeline = newPipeline(s.config.PipelineBufferCount, s.executionSink, steps...)
	s.registry.register(componentPipeline, s.pipeline)
}

// Stop brings the stage to the stopped state: it cancels the tick task,
// deactivates every live handler in parallel bounded by the shutdown
// deadline, and disconnects the transport. The returned completion settles
// once the stage has stopped.
func (s *Stage) Stop(ctx context.Context) *future.Completion {
	return future.Run(func() (any, error) {
		return nil, s.stop(ctx)
	})
}

func (s *Stage) stop(ctx context.Context) error {
	if !s.started.CompareAndSwap(true, false) {
		return errors.ErrStageNotRunning
	}

	s.logger.Infof("stopping stage %s ...", s.config.NodeIdentity)
	s.netSystem.SetStatus(node.Stopping)

	close(s.tickStop)
	<-s.tickDone
	s.tick.Stop()

	s.scheduler.stop(ctx)

	err := multierr.Combine(
		s.execution.Shutdown(ctx),
		s.transport.Stop(ctx),
	)

	s.runCancel()
	err = multierr.Append(err, s.pools.Shutdown(ctx))

	s.netSystem.SetStatus(node.Stopped)
	s.logger.Infof("stage %s successfully stopped.", s.config.NodeIdentity)
	return err
}

// tickLoop runs the periodic maintenance pass until stop.
func (s *Stage) tickLoop() {
	defer close(s.tickDone)
	for {
		select {
		case <-s.tickStop:
			return
		case <-s.tick.Ticks:
			s.onTick()
		}
	}
}

// onTick sweeps the response tracker before the execution system so that a
// timed-out call can never keep its handler alive through the same tick.
func (s *Stage) onTick() {
	defer func() {
		if r := recover(); r != nil {
			s.errorHandler(errors.NewPanicError(recoveredError(r)))
		}
	}()

	started := s.clock.Now()
	s.tracker.OnTick(started)
	s.execution.OnTick(started)

	if elapsed := s.clock.Now() - started; elapsed > s.config.TickRate.Milliseconds() {
		s.logger.Warnf("slow tick: took %dms with tick rate %s", elapsed, s.config.TickRate)
	}
}

// receive feeds inbound envelopes into the pipeline on the I/O pool.
func (s *Stage) receive(ctx context.Context, envelope *transport.Envelope) {
	s.pools.IO().Submit(func() {
		if err := s.pipeline.Inbound(ctx, envelope); err != nil && !isContextError(err) {
			s.errorHandler(err)
		}
	})
}

// executionSink terminates the inbound direction: requests dispatch into the
// execution system and their results flow back as responses through the
// outbound direction.
func (s *Stage) executionSink(ctx context.Context, message *Message) error {
	if !message.IsRequest() {
		s.logger.Warnf("dropping unexpected inbound message %d kind %d", message.ID, message.Kind)
		return nil
	}

	completion := future.New()
	s.execution.HandleInvocation(ctx, message.Invocation, completion)

	respondCtx := context.WithoutCancel(ctx)
	s.pools.IO().Submit(func() {
		<-completion.Done()
		value, err := completion.Result()

		var response *Message
		if err != nil {
			response = newErrorResponse(message, err)
		} else {
			response = newValueResponse(message, value)
		}
		if err := s.pipeline.Outbound(respondCtx, response); err != nil {
			s.errorHandler(err)
		}
	})
	return nil
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
