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

package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestSubmitRunsTasks(t *testing.T) {
	root := NewRoot(nil)
	counter := atomic.NewInt32(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		ok := root.CPU().Submit(func() {
			defer wg.Done()
			counter.Inc()
		})
		require.True(t, ok)
	}
	wg.Wait()

	assert.EqualValues(t, 50, counter.Load())
	require.NoError(t, root.Shutdown(context.Background()))
}

func TestPanicDoesNotCancelSiblings(t *testing.T) {
	var failures []error
	var mu sync.Mutex
	root := NewRoot(func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	})

	sibling := make(chan struct{})
	root.IO().Submit(func() { panic("boom") })
	root.IO().Submit(func() { close(sibling) })

	select {
	case <-sibling:
	case <-time.After(time.Second):
		t.Fatal("sibling task did not run")
	}

	require.NoError(t, root.Shutdown(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Error(), "boom")
}

func TestSubmitAfterShutdown(t *testing.T) {
	root := NewRoot(nil)
	require.NoError(t, root.Shutdown(context.Background()))
	assert.False(t, root.CPU().Submit(func() {}))
}

func TestWaitDeadline(t *testing.T) {
	root := NewRoot(nil)
	release := make(chan struct{})
	root.IO().Submit(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := root.Shutdown(ctx)
	require.Error(t, err)

	close(release)
}
