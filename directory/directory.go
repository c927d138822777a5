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

package directory

import (
	"context"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/node"
)

// Backend is the external cluster store holding the authoritative
// reference-to-node placement map. All writes are conditional: GetOrPut has
// get-or-put single-winner semantics and RemoveIf only deletes when the
// current owner matches. Implementations wrap transient store failures with
// errors.ErrDirectory and never retry; retry policy belongs to the caller.
type Backend interface {
	// Get returns the current owner of the reference, when any.
	Get(ctx context.Context, ref addressable.Reference) (node.Identity, bool, error)

	// GetOrPut atomically returns the existing owner when present, otherwise
	// records the proposed owner and returns it. Concurrent callers on any
	// node agree on the single winner.
	GetOrPut(ctx context.Context, ref addressable.Reference, owner node.Identity) (node.Identity, error)

	// Put unconditionally records the owner of the reference.
	Put(ctx context.Context, ref addressable.Reference, owner node.Identity) error

	// RemoveIf deletes the entry only when the current owner equals the
	// expected identity. It reports whether a removal happened.
	RemoveIf(ctx context.Context, ref addressable.Reference, expected node.Identity) (bool, error)
}

// Directory is the thin per-node façade over the cluster store. It binds the
// local node identity to the conditional operations the runtime needs.
type Directory struct {
	backend Backend
	local   node.Identity
}

// New creates a Directory façade for the given local node.
func New(backend Backend, local node.Identity) *Directory {
	return &Directory{
		backend: backend,
		local:   local,
	}
}

// Locate looks up the current placement of the reference.
func (d *Directory) Locate(ctx context.Context, ref addressable.Reference) (node.Target, bool, error) {
	owner, found, err := d.backend.Get(ctx, ref)
	if err != nil || !found {
		return node.AnyTarget(), false, err
	}
	return node.Unicast(owner), true, nil
}

// LocateOrPlace atomically resolves the placement of the reference: the
// existing placement when any, otherwise the proposed target. The proposed
// target must be unicast.
func (d *Directory) LocateOrPlace(ctx context.Context, ref addressable.Reference, target node.Target) (node.Target, error) {
	proposed, ok := target.Unicast()
	if !ok {
		proposed = d.local
	}
	owner, err := d.backend.GetOrPut(ctx, ref, proposed)
	if err != nil {
		return node.AnyTarget(), err
	}
	return node.Unicast(owner), nil
}

// ForcePlaceLocal unconditionally records the local node as the owner of the
// reference.
func (d *Directory) ForcePlaceLocal(ctx context.Context, ref addressable.Reference) error {
	return d.backend.Put(ctx, ref, d.local)
}

// RemoveIfLocal deletes the placement only when the local node is still the
// recorded owner.
func (d *Directory) RemoveIfLocal(ctx context.Context, ref addressable.Reference) error {
	_, err := d.backend.RemoveIf(ctx, ref, d.local)
	return err
}
