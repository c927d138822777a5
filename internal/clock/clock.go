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

package clock

import (
	"time"

	"go.uber.org/atomic"
)

// Clock is a monotonic millisecond time source.
type Clock interface {
	// Now returns the current time in milliseconds.
	Now() int64
}

// System is a Clock backed by the wall clock.
type System struct{}

// enforce compilation error
var _ Clock = (*System)(nil)

// NewSystem creates a system clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current time in milliseconds.
func (s *System) Now() int64 {
	return time.Now().UnixMilli()
}

// Manual is a Clock whose time only moves when advanced explicitly.
// It is used in tests to drive idle deactivation and timeout sweeps
// deterministically.
type Manual struct {
	now atomic.Int64
}

// enforce compilation error
var _ Clock = (*Manual)(nil)

// NewManual creates a manual clock starting at the given time.
func NewManual(start int64) *Manual {
	manual := &Manual{}
	manual.now.Store(start)
	return manual
}

// Now returns the current time in milliseconds.
func (m *Manual) Now() int64 {
	return m.now.Load()
}

// Advance moves the clock forward by the given number of milliseconds.
func (m *Manual) Advance(millis int64) {
	m.now.Add(millis)
}
