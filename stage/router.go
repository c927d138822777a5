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

	"go.uber.org/atomic"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/hash"
	"github.com/tochemey/orbit/node"
)

// PlacementStrategy picks the node a new activation is proposed on. The
// candidate list is ordered by node identity, which makes every strategy
// deterministic for a given cluster view.
type PlacementStrategy interface {
	// Name returns the strategy name.
	Name() string
	// Pick selects one candidate. The slice is never empty.
	Pick(ref addressable.Reference, candidates []*node.Info) *node.Info
}

// RoundRobin cycles through the capable nodes.
type RoundRobin struct {
	next atomic.Uint64
}

// enforce compilation error
var _ PlacementStrategy = (*RoundRobin)(nil)

// NewRoundRobin creates a round-robin placement strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Name returns the strategy name.
func (r *RoundRobin) Name() string { return "round-robin" }

// Pick selects one candidate.
func (r *RoundRobin) Pick(_ addressable.Reference, candidates []*node.Info) *node.Info {
	index := (r.next.Inc() - 1) % uint64(len(candidates))
	return candidates[index]
}

// Rendezvous picks the highest-scoring node for the reference, so every node
// proposing a placement for the same reference proposes the same candidate.
type Rendezvous struct {
	hasher hash.Hasher
}

// enforce compilation error
var _ PlacementStrategy = (*Rendezvous)(nil)

// NewRendezvous creates a rendezvous-hashing placement strategy.
func NewRendezvous(hasher hash.Hasher) *Rendezvous {
	if hasher == nil {
		hasher = hash.DefaultHasher()
	}
	return &Rendezvous{hasher: hasher}
}

// Name returns the strategy name.
func (r *Rendezvous) Name() string { return "rendezvous" }

// Pick selects one candidate.
func (r *Rendezvous) Pick(ref addressable.Reference, candidates []*node.Info) *node.Info {
	// candidates are ordered by identity, so ties resolve to the
	// lexicographically smallest node on every proposer
	winner := candidates[0]
	best := r.hasher.HashCode([]byte(ref.String() + "@" + winner.Identity.String()))
	for _, candidate := range candidates[1:] {
		score := r.hasher.HashCode([]byte(ref.String() + "@" + candidate.Identity.String()))
		if score > best {
			best = score
			winner = candidate
		}
	}
	return winner
}

// Router decides the target node of an outbound message: local, an existing
// placement, or a new placement through the directory. It is a pure function
// of directory state and the capability view; it never creates instances and
// never contacts the target.
type Router struct {
	netSystem    *node.NetSystem
	directory    *directory.Directory
	capabilities *Capabilities
	strategy     PlacementStrategy
}

func newRouter(netSystem *node.NetSystem, dir *directory.Directory, capabilities *Capabilities, strategy PlacementStrategy) *Router {
	if strategy == nil {
		strategy = NewRoundRobin()
	}
	return &Router{
		netSystem:    netSystem,
		directory:    dir,
		capabilities: capabilities,
		strategy:     strategy,
	}
}

// Route resolves the target for the given reference.
func (r *Router) Route(ctx context.Context, current node.Target, ref addressable.Reference) (node.Target, error) {
	// an explicit unicast target passes through
	if _, ok := current.Unicast(); ok {
		return current, nil
	}

	if target, found, err := r.directory.Locate(ctx, ref); err != nil {
		return node.AnyTarget(), err
	} else if found {
		return target, nil
	}

	local := r.netSystem.Local()
	if definition, ok := r.capabilities.Definition(ref.Interface()); ok && definition.PreferLocal && local.CanHost(ref.Interface()) {
		if err := r.directory.ForcePlaceLocal(ctx, ref); err != nil {
			return node.AnyTarget(), err
		}
		return node.Unicast(local.Identity), nil
	}

	candidates := r.netSystem.CapableNodes(ref.Interface())
	if len(candidates) == 0 {
		return node.AnyTarget(), errors.ErrNoAvailableNode
	}

	candidate := r.strategy.Pick(ref, candidates)
	return r.directory.LocateOrPlace(ctx, ref, node.Unicast(candidate.Identity))
}
