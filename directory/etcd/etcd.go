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

// Package etcd provides an addressable directory backend on top of an etcd
// cluster. Conditional writes map onto etcd transactions, which gives the
// get-or-put and remove-if-equal semantics the runtime relies on.
package etcd

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/node"
)

// DefaultPrefix is the key namespace under which placements are stored.
const DefaultPrefix = "/orbit/directory/"

// Backend implements directory.Backend over etcd v3 transactions.
type Backend struct {
	kv     clientv3.KV
	prefix string
}

// enforce compilation error
var _ directory.Backend = (*Backend)(nil)

// Option configures the Backend.
type Option func(*Backend)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

// NewBackend creates a directory backend using the given etcd client.
func NewBackend(client *clientv3.Client, opts ...Option) *Backend {
	backend := &Backend{
		kv:     client.KV,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(backend)
	}
	return backend
}

// Get returns the current owner of the reference, when any.
func (b *Backend) Get(ctx context.Context, ref addressable.Reference) (node.Identity, bool, error) {
	resp, err := b.kv.Get(ctx, b.key(ref))
	if err != nil {
		return "", false, errors.NewErrDirectory(err)
	}
	if len(resp.Kvs) == 0 {
		return "", false, nil
	}
	return node.Identity(resp.Kvs[0].Value), true, nil
}

// GetOrPut returns the existing owner when present, otherwise records the
// proposed owner. The transaction succeeds only when the key does not exist
// yet, so all concurrent proposers observe the single winner.
func (b *Backend) GetOrPut(ctx context.Context, ref addressable.Reference, owner node.Identity) (node.Identity, error) {
	key := b.key(ref)
	resp, err := b.kv.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, owner.String())).
		Else(clientv3.OpGet(key)).
		Commit()
	if err != nil {
		return "", errors.NewErrDirectory(err)
	}
	if resp.Succeeded {
		return owner, nil
	}
	kvs := resp.Responses[0].GetResponseRange().Kvs
	if len(kvs) == 0 {
		// the winner vanished between the compare and the read; the proposed
		// owner is recorded unconditionally and returned
		return owner, b.Put(ctx, ref, owner)
	}
	return node.Identity(kvs[0].Value), nil
}

// Put unconditionally records the owner of the reference.
func (b *Backend) Put(ctx context.Context, ref addressable.Reference, owner node.Identity) error {
	if _, err := b.kv.Put(ctx, b.key(ref), owner.String()); err != nil {
		return errors.NewErrDirectory(err)
	}
	return nil
}

// RemoveIf deletes the entry only when the current owner matches.
func (b *Backend) RemoveIf(ctx context.Context, ref addressable.Reference, expected node.Identity) (bool, error) {
	key := b.key(ref)
	resp, err := b.kv.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(key), "=", expected.String())).
		Then(clientv3.OpDelete(key)).
		Commit()
	if err != nil {
		return false, errors.NewErrDirectory(err)
	}
	return resp.Succeeded, nil
}

func (b *Backend) key(ref addressable.Reference) string {
	return b.prefix + ref.String()
}
