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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
	"github.com/tochemey/orbit/internal/clock"
	"github.com/tochemey/orbit/log"
)

// slowDeactivator blocks inside OnDeactivate until released, which keeps the
// handler observable in the deactivating state.
type slowDeactivator struct {
	started chan struct{}
	release chan struct{}
	invoked int
}

var _ addressable.Addressable = (*slowDeactivator)(nil)
var _ addressable.Deactivatable = (*slowDeactivator)(nil)

func (s *slowDeactivator) Invoke(context.Context, string, []any) (any, error) {
	s.invoked++
	return "ok", nil
}

func (s *slowDeactivator) OnDeactivate(context.Context) error {
	close(s.started)
	<-s.release
	return nil
}

func executionFixture(t *testing.T, definition *addressable.Definition) (*ExecutionSystem, *directory.MemoryBackend) {
	t.Helper()

	capabilities := NewCapabilities()
	require.NoError(t, capabilities.Register(definition))

	backend := directory.NewMemoryBackend()
	config := DefaultConfig()
	config.MailboxCapacity = 8
	execution := newExecutionSystem(
		capabilities,
		directory.New(backend, "n1"),
		clock.NewSystem(),
		log.DiscardLogger,
		func(error) {},
		config,
	)
	execution.start(context.Background())
	t.Cleanup(func() { _ = execution.Shutdown(context.Background()) })
	return execution, backend
}

func TestHandleInvocationActivatesOnDemand(t *testing.T) {
	ctx := context.Background()
	mock := newMockAddressable()
	execution, _ := executionFixture(t, greeterDefinition(func() addressable.Addressable { return mock }, true))

	completion := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{
		Reference: addressable.NewReference("Greeter", "alice"),
		Method:    "Greet",
		Args:      []any{"world"},
	}, completion)

	value, err := completion.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world", value)
	assert.EqualValues(t, 1, mock.activations.Load())
	assert.Equal(t, 1, execution.ActiveCount())
}

func TestHandleInvocationUnknownInterface(t *testing.T) {
	ctx := context.Background()
	execution, _ := executionFixture(t, greeterDefinition(func() addressable.Addressable { return newMockAddressable() }, true))

	completion := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{
		Reference: addressable.NewReference("Unknown", "alice"),
	}, completion)

	_, err := completion.Await(ctx)
	assert.ErrorIs(t, err, errors.ErrNoActiveAddressable)
}

func TestHandleInvocationNoAutoActivate(t *testing.T) {
	ctx := context.Background()
	execution, _ := executionFixture(t, &addressable.Definition{
		Interface: "Greeter",
	})

	completion := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{
		Reference: addressable.NewReference("Greeter", "alice"),
	}, completion)

	_, err := completion.Await(ctx)
	assert.ErrorIs(t, err, errors.ErrNoActiveAddressable)
}

func TestActivationFailureFailsQueuedCompletions(t *testing.T) {
	ctx := context.Background()
	mock := newMockAddressable()
	mock.failActivation = true
	execution, backend := executionFixture(t, greeterDefinition(func() addressable.Addressable { return mock }, true))

	completion := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{
		Reference: addressable.NewReference("Greeter", "alice"),
		Method:    "Greet",
		Args:      []any{"world"},
	}, completion)

	_, err := completion.Await(ctx)
	assert.ErrorIs(t, err, errors.ErrActivationFailure)

	require.Eventually(t, func() bool { return execution.ActiveCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, backend.Len())
}

func TestInvocationPanicSettlesCompletion(t *testing.T) {
	ctx := context.Background()
	execution, _ := executionFixture(t, greeterDefinition(func() addressable.Addressable { return newMockAddressable() }, true))

	completion := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{
		Reference: addressable.NewReference("Greeter", "alice"),
		Method:    "Panic",
	}, completion)

	_, err := completion.Await(ctx)
	require.Error(t, err)
	var panicErr *errors.PanicError
	assert.ErrorAs(t, err, &panicErr)

	// the handler survives a panicking invocation
	next := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{
		Reference: addressable.NewReference("Greeter", "alice"),
		Method:    "Greet",
		Args:      []any{"again"},
	}, next)
	value, err := next.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello again", value)
}

func TestPostDuringDeactivationFails(t *testing.T) {
	ctx := context.Background()
	instance := &slowDeactivator{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	execution, _ := executionFixture(t, greeterDefinition(func() addressable.Addressable { return instance }, true))

	first := future.New()
	reference := addressable.NewReference("Greeter", "alice")
	execution.HandleInvocation(ctx, &addressable.Invocation{Reference: reference, Method: "Any"}, first)
	_, err := first.Await(ctx)
	require.NoError(t, err)

	h, found := execution.active.Get(reference.String())
	require.True(t, found)
	h.requestDeactivate()
	<-instance.started

	// the handler is mid-deactivation: new invocations fail and the caller
	// is expected to retry, which re-places through the directory
	late := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{Reference: reference, Method: "Any"}, late)
	_, err = late.Await(ctx)
	assert.ErrorIs(t, err, errors.ErrDeactivating)

	close(instance.release)
	require.Eventually(t, func() bool { return execution.ActiveCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRegisterSingleton(t *testing.T) {
	ctx := context.Background()
	mock := newMockAddressable()
	execution, backend := executionFixture(t, &addressable.Definition{Interface: "Greeter"})

	reference := addressable.NewReference("Greeter", "main")
	require.NoError(t, execution.RegisterSingleton(ctx, reference, mock))

	// singletons skip the activation hook
	assert.Zero(t, mock.activations.Load())

	owner, found, err := backend.Get(ctx, reference)
	require.NoError(t, err)
	require.True(t, found)
	assert.EqualValues(t, "n1", owner)

	completion := future.New()
	execution.HandleInvocation(ctx, &addressable.Invocation{
		Reference: reference,
		Method:    "Greet",
		Args:      []any{"singleton"},
	}, completion)
	value, err := completion.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello singleton", value)

	err = execution.RegisterSingleton(ctx, reference, mock)
	assert.ErrorIs(t, err, errors.ErrInterfaceAlreadyRegistered)
}
