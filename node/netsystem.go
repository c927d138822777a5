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

package node

import (
	"sort"
	"sync"
)

// NetSystem holds the local node identity, status and capabilities together
// with the last known view of the peer nodes. Membership is fed by the
// embedding application; the runtime only reads it.
type NetSystem struct {
	mu    sync.RWMutex
	local *Info
	peers map[Identity]*Info
}

// NewNetSystem creates a NetSystem around the given local node info.
func NewNetSystem(local *Info) *NetSystem {
	return &NetSystem{
		local: local,
		peers: make(map[Identity]*Info),
	}
}

// Local returns the local node info.
func (n *NetSystem) Local() *Info {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.local
}

// SetStatus updates the local node status.
func (n *NetSystem) SetStatus(status Status) {
	n.mu.Lock()
	n.local.Status = status
	n.mu.Unlock()
}

// Status returns the local node status.
func (n *NetSystem) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.local.Status
}

// SetPeers replaces the peer view.
func (n *NetSystem) SetPeers(peers ...*Info) {
	n.mu.Lock()
	n.peers = make(map[Identity]*Info, len(peers))
	for _, peer := range peers {
		n.peers[peer.Identity] = peer
	}
	n.mu.Unlock()
}

// Nodes returns the cluster view including the local node, ordered by
// identity for deterministic iteration.
func (n *NetSystem) Nodes() []*Info {
	n.mu.RLock()
	defer n.mu.RUnlock()
	nodes := make([]*Info, 0, len(n.peers)+1)
	nodes = append(nodes, n.local)
	for _, peer := range n.peers {
		nodes = append(nodes, peer)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Identity < nodes[j].Identity })
	return nodes
}

// CapableNodes returns, in identity order, the hosting nodes whose
// capabilities include the given interface.
func (n *NetSystem) CapableNodes(interfaceID string) []*Info {
	nodes := n.Nodes()
	capable := make([]*Info, 0, len(nodes))
	for _, info := range nodes {
		if info.CanHost(interfaceID) {
			capable = append(capable, info)
		}
	}
	return capable
}
