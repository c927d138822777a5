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
	"sync"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/node"
)

// MemoryBackend is an in-process Backend with compare-and-set semantics. It
// backs single-node deployments and tests; a process-shared instance behaves
// like a tiny cluster directory for stages wired over the loopback transport.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]node.Identity
}

// enforce compilation error
var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory directory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]node.Identity),
	}
}

// Get returns the current owner of the reference, when any.
func (m *MemoryBackend) Get(_ context.Context, ref addressable.Reference) (node.Identity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.entries[ref.String()]
	return owner, ok, nil
}

// GetOrPut returns the existing owner when present, otherwise records the
// proposed owner and returns it.
func (m *MemoryBackend) GetOrPut(_ context.Context, ref addressable.Reference, owner node.Identity) (node.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[ref.String()]; ok {
		return existing, nil
	}
	m.entries[ref.String()] = owner
	return owner, nil
}

// Put unconditionally records the owner of the reference.
func (m *MemoryBackend) Put(_ context.Context, ref addressable.Reference, owner node.Identity) error {
	m.mu.Lock()
	m.entries[ref.String()] = owner
	m.mu.Unlock()
	return nil
}

// RemoveIf deletes the entry only when the current owner matches.
func (m *MemoryBackend) RemoveIf(_ context.Context, ref addressable.Reference, expected node.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.entries[ref.String()]
	if !ok || owner != expected {
		return false, nil
	}
	delete(m.entries, ref.String())
	return true, nil
}

// Len returns the number of placements recorded.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
