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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAvailableNode is returned when no node in the cluster advertises the
	// capability required to host an addressable interface.
	ErrNoAvailableNode = errors.New("no node is available to host the addressable")

	// ErrNoActiveAddressable is returned when an invocation targets a
	// non-auto-activating interface that has no live instance.
	ErrNoActiveAddressable = errors.New("addressable is not active")

	// ErrActivationFailure is returned when the instance activation hook failed.
	ErrActivationFailure = errors.New("addressable activation failed")

	// ErrDeactivationFailure is returned when the instance deactivation hook failed.
	ErrDeactivationFailure = errors.New("addressable deactivation failed")

	// ErrTimeout indicates that a response was not received within the
	// configured message timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrCapacityExceeded is returned when the pipeline admission queue or a
	// handler mailbox is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrDeactivating is returned when an invocation reaches a handler that is
	// already deactivating. The caller may retry, which re-routes the
	// invocation through the directory.
	ErrDeactivating = errors.New("addressable is deactivating")

	// ErrTransport wraps failures of the underlying message carrier.
	ErrTransport = errors.New("transport failure")

	// ErrDirectory wraps failures of the underlying cluster directory store.
	ErrDirectory = errors.New("directory failure")

	// ErrStageNotRunning indicates that the stage has not been started before use.
	ErrStageNotRunning = errors.New("stage is not running")

	// ErrStageAlreadyStarted is returned when attempting to start a stage that
	// is already running.
	ErrStageAlreadyStarted = errors.New("stage has already started")

	// ErrDuplicateTracking is returned when a message id is tracked twice.
	ErrDuplicateTracking = errors.New("message id is already tracked")

	// ErrInterfaceNotRegistered is returned when attempting to use an
	// addressable interface that has not been registered.
	ErrInterfaceNotRegistered = errors.New("addressable interface is not registered")

	// ErrInterfaceAlreadyRegistered is returned when registering an
	// addressable interface twice.
	ErrInterfaceAlreadyRegistered = errors.New("addressable interface is already registered")

	// ErrInvalidReference is returned when an addressable reference is
	// malformed or invalid.
	ErrInvalidReference = errors.New("invalid addressable reference")

	// ErrInvalidConfig is returned when the stage configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMethodNotImplemented is returned when an instance rejects a method id.
	ErrMethodNotImplemented = errors.New("method is not implemented")

	// ErrSchedulerNotStarted is returned when attempting to use the scheduler
	// before it has started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")
)

// NewErrActivationFailure wraps the given error into an ErrActivationFailure.
func NewErrActivationFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrActivationFailure, err)
}

// NewErrDeactivationFailure wraps the given error into an ErrDeactivationFailure.
func NewErrDeactivationFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrDeactivationFailure, err)
}

// NewErrTransport wraps the given error into an ErrTransport.
func NewErrTransport(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// NewErrDirectory wraps the given error into an ErrDirectory.
func NewErrDirectory(err error) error {
	return fmt.Errorf("%w: %w", ErrDirectory, err)
}
