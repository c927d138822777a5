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
	goerrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/log"
	"github.com/tochemey/orbit/node"
	"github.com/tochemey/orbit/transport"
)

// mockAddressable is a scriptable instance used across the stage tests.
type mockAddressable struct {
	activations    *atomic.Int32
	deactivations  *atomic.Int32
	inflight       *atomic.Int32
	maxInflight    *atomic.Int32
	failActivation bool
	block          chan struct{}
}

var _ addressable.Addressable = (*mockAddressable)(nil)
var _ addressable.Activatable = (*mockAddressable)(nil)
var _ addressable.Deactivatable = (*mockAddressable)(nil)

func newMockAddressable() *mockAddressable {
	return &mockAddressable{
		activations:   atomic.NewInt32(0),
		deactivations: atomic.NewInt32(0),
		inflight:      atomic.NewInt32(0),
		maxInflight:   atomic.NewInt32(0),
		block:         make(chan struct{}),
	}
}

func (m *mockAddressable) OnActivate(context.Context) error {
	if m.failActivation {
		return goerrors.New("activation boom")
	}
	m.activations.Inc()
	return nil
}

func (m *mockAddressable) OnDeactivate(context.Context) error {
	m.deactivations.Inc()
	return nil
}

func (m *mockAddressable) Invoke(_ context.Context, method string, args []any) (any, error) {
	current := m.inflight.Inc()
	defer m.inflight.Dec()
	for {
		peak := m.maxInflight.Load()
		if current <= peak || m.maxInflight.CompareAndSwap(peak, current) {
			break
		}
	}

	switch method {
	case "Greet":
		return fmt.Sprintf("hello %v", args[0]), nil
	case "Fail":
		return nil, goerrors.New("boom")
	case "Panic":
		panic("kaboom")
	case "Block":
		<-m.block
		return "unblocked", nil
	case "Slow":
		time.Sleep(5 * time.Millisecond)
		return "done", nil
	default:
		return nil, goerrors.New("unhandled method " + method)
	}
}

func (m *mockAddressable) release() {
	close(m.block)
}

// testCluster wires stages together over a loopback hub and one shared
// in-memory directory.
type testCluster struct {
	hub     *transport.Hub
	backend *directory.MemoryBackend
	stages  []*Stage
}

func newTestCluster() *testCluster {
	return &testCluster{
		hub:     transport.NewHub(),
		backend: directory.NewMemoryBackend(),
	}
}

func (c *testCluster) newStage(t *testing.T, identity string, definitions []*addressable.Definition, opts ...Option) *Stage {
	t.Helper()

	options := append([]Option{
		WithClusterName("test"),
		WithNodeIdentity(identity),
		WithLogger(log.DiscardLogger),
		WithDirectoryBackend(c.backend),
		WithTransport(transport.NewLoopback(c.hub, node.Identity(identity))),
	}, opts...)

	stage, err := NewStage(options...)
	require.NoError(t, err)
	for _, definition := range definitions {
		require.NoError(t, stage.Register(definition))
	}

	ctx := context.Background()
	_, err = stage.Start(ctx).Await(ctx)
	require.NoError(t, err)

	c.stages = append(c.stages, stage)
	t.Cleanup(func() {
		if stage.Running() {
			_, _ = stage.Stop(context.Background()).Await(context.Background())
		}
	})
	return stage
}

// link makes every stage see the others as peers.
func (c *testCluster) link() {
	for _, stage := range c.stages {
		peers := make([]*node.Info, 0, len(c.stages)-1)
		for _, other := range c.stages {
			if other != stage {
				peers = append(peers, other.NetSystem().Local())
			}
		}
		stage.NetSystem().SetPeers(peers...)
	}
}

func greeterDefinition(factory addressable.Factory, preferLocal bool) *addressable.Definition {
	return &addressable.Definition{
		Interface:      "Greeter",
		AutoActivate:   true,
		AutoDeactivate: true,
		PreferLocal:    preferLocal,
		Factory:        factory,
	}
}
