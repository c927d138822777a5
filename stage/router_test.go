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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/hash"
	"github.com/tochemey/orbit/node"
)

func routerFixture(t *testing.T, preferLocal bool, strategy PlacementStrategy) (*Router, *directory.MemoryBackend, *node.NetSystem) {
	t.Helper()

	local := node.NewInfo("test", "b-node", node.Host)
	local.Capabilities.Add("Greeter")
	netSystem := node.NewNetSystem(local)

	peer := node.NewInfo("test", "a-node", node.Host)
	peer.Capabilities.Add("Greeter")
	netSystem.SetPeers(peer)

	capabilities := NewCapabilities()
	require.NoError(t, capabilities.Register(&addressable.Definition{
		Interface:    "Greeter",
		AutoActivate: true,
		PreferLocal:  preferLocal,
		Factory:      func() addressable.Addressable { return newMockAddressable() },
	}))

	backend := directory.NewMemoryBackend()
	return newRouter(netSystem, directory.New(backend, "b-node"), capabilities, strategy), backend, netSystem
}

func TestRouteExplicitTargetPassesThrough(t *testing.T) {
	router, _, _ := routerFixture(t, false, nil)
	target, err := router.Route(context.Background(), node.Unicast("elsewhere"), addressable.NewReference("Greeter", "k1"))
	require.NoError(t, err)
	assert.True(t, target.Equal(node.Unicast("elsewhere")))
}

func TestRouteUsesExistingPlacement(t *testing.T) {
	ctx := context.Background()
	router, backend, _ := routerFixture(t, true, nil)
	require.NoError(t, backend.Put(ctx, addressable.NewReference("Greeter", "k1"), "a-node"))

	target, err := router.Route(ctx, node.AnyTarget(), addressable.NewReference("Greeter", "k1"))
	require.NoError(t, err)
	assert.True(t, target.Equal(node.Unicast("a-node")))
}

func TestRoutePreferLocalPlacesLocally(t *testing.T) {
	ctx := context.Background()
	router, backend, _ := routerFixture(t, true, nil)
	ref := addressable.NewReference("Greeter", "k1")

	target, err := router.Route(ctx, node.AnyTarget(), ref)
	require.NoError(t, err)
	assert.True(t, target.Equal(node.Unicast("b-node")))

	owner, found, err := backend.Get(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)
	assert.EqualValues(t, "b-node", owner)
}

func TestRoutePlacesOnCapableNode(t *testing.T) {
	ctx := context.Background()
	router, backend, _ := routerFixture(t, false, nil)
	ref := addressable.NewReference("Greeter", "k1")

	target, err := router.Route(ctx, node.AnyTarget(), ref)
	require.NoError(t, err)

	// round-robin over the lexicographically ordered candidates starts at
	// the first one
	assert.True(t, target.Equal(node.Unicast("a-node")))

	owner, found, err := backend.Get(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)
	assert.EqualValues(t, "a-node", owner)
}

func TestRouteNoCapableNode(t *testing.T) {
	router, _, _ := routerFixture(t, false, nil)
	_, err := router.Route(context.Background(), node.AnyTarget(), addressable.NewReference("Unknown", "k1"))
	assert.ErrorIs(t, err, errors.ErrNoAvailableNode)
}

func TestRendezvousIsDeterministic(t *testing.T) {
	strategy := NewRendezvous(hash.DefaultHasher())
	nodes := []*node.Info{
		node.NewInfo("test", "a-node", node.Host),
		node.NewInfo("test", "b-node", node.Host),
		node.NewInfo("test", "c-node", node.Host),
	}

	ref := addressable.NewReference("Greeter", "k1")
	first := strategy.Pick(ref, nodes)
	for i := 0; i < 10; i++ {
		assert.Same(t, first, strategy.Pick(ref, nodes))
	}
}

func TestRoundRobinCycles(t *testing.T) {
	strategy := NewRoundRobin()
	nodes := []*node.Info{
		node.NewInfo("test", "a-node", node.Host),
		node.NewInfo("test", "b-node", node.Host),
	}

	ref := addressable.NewReference("Greeter", "k1")
	assert.Equal(t, node.Identity("a-node"), strategy.Pick(ref, nodes).Identity)
	assert.Equal(t, node.Identity("b-node"), strategy.Pick(ref, nodes).Identity)
	assert.Equal(t, node.Identity("a-node"), strategy.Pick(ref, nodes).Identity)
}
