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

// Package redis provides an addressable directory backend on top of a redis
// deployment. The conditional operations run as Lua scripts so that the
// get-or-put and remove-if-equal checks are atomic on the server.
package redis

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/directory"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/node"
)

// DefaultPrefix is the key namespace under which placements are stored.
const DefaultPrefix = "orbit:directory:"

var (
	getOrPutScript = redis.NewScript(`
local owner = redis.call('GET', KEYS[1])
if owner then
  return owner
end
redis.call('SET', KEYS[1], ARGV[1])
return ARGV[1]`)

	removeIfScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0`)
)

// Backend implements directory.Backend over redis.
type Backend struct {
	client redis.UniversalClient
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

// NewBackend creates a directory backend using the given redis client.
func NewBackend(client redis.UniversalClient, opts ...Option) *Backend {
	backend := &Backend{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(backend)
	}
	return backend
}

// Get returns the current owner of the reference, when any.
func (b *Backend) Get(ctx context.Context, ref addressable.Reference) (node.Identity, bool, error) {
	owner, err := b.client.Get(ctx, b.key(ref)).Result()
	if goerrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewErrDirectory(err)
	}
	return node.Identity(owner), true, nil
}

// GetOrPut returns the existing owner when present, otherwise records the
// proposed owner and returns it.
func (b *Backend) GetOrPut(ctx context.Context, ref addressable.Reference, owner node.Identity) (node.Identity, error) {
	result, err := getOrPutScript.Run(ctx, b.client, []string{b.key(ref)}, owner.String()).Result()
	if err != nil {
		return "", errors.NewErrDirectory(err)
	}
	winner, ok := result.(string)
	if !ok {
		return "", errors.NewErrDirectory(fmt.Errorf("unexpected script result %T", result))
	}
	return node.Identity(winner), nil
}

// Put unconditionally records the owner of the reference.
func (b *Backend) Put(ctx context.Context, ref addressable.Reference, owner node.Identity) error {
	if err := b.client.Set(ctx, b.key(ref), owner.String(), 0).Err(); err != nil {
		return errors.NewErrDirectory(err)
	}
	return nil
}

// RemoveIf deletes the entry only when the current owner matches.
func (b *Backend) RemoveIf(ctx context.Context, ref addressable.Reference, expected node.Identity) (bool, error) {
	result, err := removeIfScript.Run(ctx, b.client, []string{b.key(ref)}, expected.String()).Int()
	if err != nil {
		return false, errors.NewErrDirectory(err)
	}
	return result == 1, nil
}

func (b *Backend) key(ref addressable.Reference) string {
	return b.prefix + ref.String()
}
