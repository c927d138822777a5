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

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orbit/errors"
)

func TestLoopbackRoundTrip(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	sender := NewLoopback(hub, "n1")
	receiver := NewLoopback(hub, "n2")

	received := make(chan *Envelope, 1)
	require.NoError(t, receiver.Start(ctx, func(_ context.Context, envelope *Envelope) {
		received <- envelope
	}))
	require.NoError(t, sender.Start(ctx, func(context.Context, *Envelope) {}))

	require.NoError(t, sender.Send(ctx, &Envelope{To: "n2", From: "n1", Payload: []byte("ping")}))

	select {
	case envelope := <-received:
		assert.Equal(t, []byte("ping"), envelope.Payload)
		assert.EqualValues(t, "n1", envelope.From)
	case <-time.After(time.Second):
		t.Fatal("envelope was not delivered")
	}

	require.NoError(t, receiver.Stop(ctx))
	err := sender.Send(ctx, &Envelope{To: "n2", From: "n1"})
	assert.ErrorIs(t, err, errors.ErrTransport)
	require.NoError(t, sender.Stop(ctx))
}
