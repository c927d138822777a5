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
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/internal/syncmap"
)

// Capabilities enumerates the addressable interfaces the local node
// implements. It is the registration-map replacement for a reflective
// capability scan and the sole producer of interface definitions.
type Capabilities struct {
	definitions *syncmap.SyncMap[string, *addressable.Definition]
}

// NewCapabilities creates an empty capability registry.
func NewCapabilities() *Capabilities {
	return &Capabilities{
		definitions: syncmap.New[string, *addressable.Definition](),
	}
}

// Register installs the definition of an addressable interface. It must run
// before the stage starts; definitions are immutable afterwards.
func (c *Capabilities) Register(definition *addressable.Definition) error {
	if definition == nil || strings.TrimSpace(definition.Interface) == "" {
		return errors.ErrInvalidConfig
	}
	if definition.AutoActivate && definition.Factory == nil {
		return errors.ErrInvalidConfig
	}
	if _, found := c.definitions.Get(definition.Interface); found {
		return errors.ErrInterfaceAlreadyRegistered
	}
	c.definitions.Set(definition.Interface, definition)
	return nil
}

// Definition returns the definition of the given interface.
func (c *Capabilities) Definition(interfaceID string) (*addressable.Definition, bool) {
	return c.definitions.Get(interfaceID)
}

// Interfaces returns the set of registered interface ids.
func (c *Capabilities) Interfaces() mapset.Set[string] {
	interfaces := mapset.NewSet[string]()
	c.definitions.Range(func(interfaceID string, _ *addressable.Definition) {
		interfaces.Add(interfaceID)
	})
	return interfaces
}
