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
	mapset "github.com/deckarep/golang-set/v2"
)

type targetKind int

const (
	anyKind targetKind = iota
	unicastKind
	multicastKind
)

// Target designates where a message should be delivered. It is a variant of
// unicast (a single node), multicast (a set of nodes) or any (no placement
// decided yet). Only unicast targets participate in placement.
type Target struct {
	kind  targetKind
	node  Identity
	nodes mapset.Set[Identity]
}

// AnyTarget returns the target of a message whose placement has not been
// decided yet.
func AnyTarget() Target {
	return Target{kind: anyKind}
}

// Unicast returns a target designating a single node.
func Unicast(identity Identity) Target {
	return Target{kind: unicastKind, node: identity}
}

// Multicast returns a target designating a set of nodes.
func Multicast(identities ...Identity) Target {
	return Target{kind: multicastKind, nodes: mapset.NewSet(identities...)}
}

// IsAny returns true when no placement has been decided.
func (t Target) IsAny() bool {
	return t.kind == anyKind
}

// Unicast returns the single target node and true when the target is unicast.
func (t Target) Unicast() (Identity, bool) {
	return t.node, t.kind == unicastKind
}

// Nodes returns the multicast node set, or nil for other kinds.
func (t Target) Nodes() mapset.Set[Identity] {
	return t.nodes
}

// Equal returns true when both targets designate the same destination.
func (t Target) Equal(other Target) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case unicastKind:
		return t.node == other.node
	case multicastKind:
		return t.nodes.Equal(other.nodes)
	default:
		return true
	}
}

// String returns a human readable representation of the target.
func (t Target) String() string {
	switch t.kind {
	case unicastKind:
		return "unicast(" + t.node.String() + ")"
	case multicastKind:
		return "multicast" + t.nodes.String()
	default:
		return "any"
	}
}
