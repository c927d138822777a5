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
	"github.com/tochemey/orbit/internal/syncmap"
)

// component names inside the stage registry.
const (
	componentNetSystem  = "netSystem"
	componentDirectory  = "directory"
	componentRouter     = "router"
	componentPipeline   = "pipeline"
	componentTracker    = "responseTracker"
	componentExecution  = "executionSystem"
	componentScheduler  = "scheduler"
	componentTransport  = "transport"
	componentSerializer = "serializer"
)

// registry is the two-phase wiring point of the stage: components register
// themselves at construction and late-bound lookups resolve during start.
// Lookups are never owning references, which keeps the stage free of back
// pointer cycles.
type registry struct {
	components *syncmap.SyncMap[string, any]
}

func newComponentRegistry() *registry {
	return &registry{
		components: syncmap.New[string, any](),
	}
}

func (r *registry) register(name string, component any) {
	r.components.Set(name, component)
}

func registryGet[T any](r *registry, name string) (T, bool) {
	var zero T
	component, found := r.components.Get(name)
	if !found {
		return zero, false
	}
	typed, ok := component.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
