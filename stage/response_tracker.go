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
	"time"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
	"github.com/tochemey/orbit/internal/clock"
	"github.com/tochemey/orbit/internal/syncmap"
	"github.com/tochemey/orbit/log"
)

type pendingResponse struct {
	completion *future.Completion
	deadline   int64
}

// ResponseTracker correlates asynchronous responses with their pending
// completions and enforces per-call timeouts at tick boundaries.
type ResponseTracker struct {
	pending *syncmap.SyncMap[uint64, *pendingResponse]
	clock   clock.Clock
	logger  log.Logger
}

func newResponseTracker(clk clock.Clock, logger log.Logger) *ResponseTracker {
	return &ResponseTracker{
		pending: syncmap.New[uint64, *pendingResponse](),
		clock:   clk,
		logger:  logger,
	}
}

// Track registers a pending completion under the message id. Duplicate ids
// are rejected: message ids are unique for the node's lifetime, so a
// duplicate is a caller bug.
func (t *ResponseTracker) Track(messageID uint64, completion *future.Completion, timeout time.Duration) error {
	entry := &pendingResponse{
		completion: completion,
		deadline:   t.clock.Now() + timeout.Milliseconds(),
	}
	if _, loaded := t.pending.GetOrSet(messageID, func() *pendingResponse { return entry }); loaded {
		return errors.ErrDuplicateTracking
	}
	return nil
}

// Settle removes the pending entry and settles its completion. A settle for
// an unknown id is a late response after timeout and is silently dropped.
func (t *ResponseTracker) Settle(messageID uint64, value any, err error) {
	entry, found := t.pending.Get(messageID)
	if !found {
		t.logger.Debugf("dropping late response for message %d", messageID)
		return
	}
	t.pending.Delete(messageID)

	if err != nil {
		entry.completion.Failure(err)
		return
	}
	entry.completion.Success(value)
}

// OnTick settles every entry whose deadline has passed with ErrTimeout and
// removes it before returning.
func (t *ResponseTracker) OnTick(now int64) {
	var expired []uint64
	t.pending.Range(func(messageID uint64, entry *pendingResponse) {
		if entry.deadline <= now {
			expired = append(expired, messageID)
		}
	})
	for _, messageID := range expired {
		if entry, found := t.pending.Get(messageID); found {
			t.pending.Delete(messageID)
			entry.completion.Failure(errors.ErrTimeout)
		}
	}
}

// PendingCount returns the number of tracked calls.
func (t *ResponseTracker) PendingCount() int {
	return t.pending.Len()
}
