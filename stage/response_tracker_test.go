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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
	"github.com/tochemey/orbit/internal/clock"
	"github.com/tochemey/orbit/log"
)

func TestTrackAndSettle(t *testing.T) {
	manual := clock.NewManual(1000)
	tracker := newResponseTracker(manual, log.DiscardLogger)

	completion := future.New()
	require.NoError(t, tracker.Track(1, completion, time.Second))
	assert.Equal(t, 1, tracker.PendingCount())

	tracker.Settle(1, "value", nil)
	assert.Zero(t, tracker.PendingCount())
	require.True(t, completion.Settled())
	value, err := completion.Result()
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestTrackRejectsDuplicates(t *testing.T) {
	tracker := newResponseTracker(clock.NewManual(0), log.DiscardLogger)
	require.NoError(t, tracker.Track(7, future.New(), time.Second))
	err := tracker.Track(7, future.New(), time.Second)
	assert.ErrorIs(t, err, errors.ErrDuplicateTracking)
}

func TestLateSettleIsIgnored(t *testing.T) {
	tracker := newResponseTracker(clock.NewManual(0), log.DiscardLogger)
	// settling an unknown id must not panic nor create state
	tracker.Settle(99, "late", nil)
	assert.Zero(t, tracker.PendingCount())
}

func TestSweepSettlesExpired(t *testing.T) {
	manual := clock.NewManual(0)
	tracker := newResponseTracker(manual, log.DiscardLogger)

	expired := future.New()
	pending := future.New()
	require.NoError(t, tracker.Track(1, expired, 100*time.Millisecond))
	require.NoError(t, tracker.Track(2, pending, 10*time.Second))

	manual.Advance(200)
	tracker.OnTick(manual.Now())

	require.True(t, expired.Settled())
	_, err := expired.Result()
	assert.ErrorIs(t, err, errors.ErrTimeout)

	assert.False(t, pending.Settled())
	assert.Equal(t, 1, tracker.PendingCount())

	// a response arriving after the sweep is silently dropped
	tracker.Settle(1, "late", nil)
	_, err = expired.Result()
	assert.ErrorIs(t, err, errors.ErrTimeout)
}
