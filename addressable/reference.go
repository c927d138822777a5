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

package addressable

import (
	"strings"

	"github.com/tochemey/orbit/errors"
)

const referenceSeparator = "/"

// Reference uniquely identifies a logical addressable entity within a
// cluster. It consists of the interface id and the instance key. References
// are immutable and safe for concurrent use.
type Reference struct {
	interfaceID string
	key         string
}

// NewReference constructs a Reference from an interface id and a key.
func NewReference(interfaceID, key string) Reference {
	return Reference{interfaceID: interfaceID, key: key}
}

// Interface returns the interface id of the reference.
func (r Reference) Interface() string {
	return r.interfaceID
}

// Key returns the instance key of the reference.
func (r Reference) Key() string {
	return r.key
}

// String returns the formatted representation of the Reference as
// "interface/key". It doubles as the directory key for the reference.
func (r Reference) String() string {
	return r.interfaceID + referenceSeparator + r.key
}

// Validate returns an error when the reference misses its interface id or key.
func (r Reference) Validate() error {
	if strings.TrimSpace(r.interfaceID) == "" || strings.TrimSpace(r.key) == "" {
		return errors.ErrInvalidReference
	}
	if strings.Contains(r.interfaceID, referenceSeparator) {
		return errors.ErrInvalidReference
	}
	return nil
}

// ToReference reconstructs a Reference from its string representation.
func ToReference(s string) (Reference, error) {
	parts := strings.SplitN(s, referenceSeparator, 2)
	if len(parts) != 2 {
		return Reference{}, errors.ErrInvalidReference
	}
	ref := Reference{interfaceID: parts[0], key: parts[1]}
	if err := ref.Validate(); err != nil {
		return Reference{}, err
	}
	return ref, nil
}
