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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/node"
)

func TestRequestRoundTrip(t *testing.T) {
	serializer := NewJSONSerializer()
	message := &Message{
		Kind:   KindRequest,
		ID:     42,
		Source: "n1",
		Target: node.Unicast("n2"),
		SentAt: 123456,
		Invocation: &addressable.Invocation{
			Reference: addressable.NewReference("Greeter", "alice"),
			Method:    "Greet",
			Args:      []any{"world"},
			Headers:   map[string]string{"tenant": "acme"},
		},
	}

	wire, err := serializer.Encode(message)
	require.NoError(t, err)

	decoded, err := serializer.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, KindRequest, decoded.Kind)
	assert.EqualValues(t, 42, decoded.ID)
	assert.EqualValues(t, "n1", decoded.Source)
	assert.Equal(t, "Greeter/alice", decoded.Invocation.Reference.String())
	assert.Equal(t, "Greet", decoded.Invocation.Method)
	assert.Equal(t, []any{"world"}, decoded.Invocation.Args)
	assert.Equal(t, "acme", decoded.Invocation.Headers["tenant"])

	target, ok := decoded.Target.Unicast()
	require.True(t, ok)
	assert.EqualValues(t, "n2", target)
}

func TestErrorResponseRoundTrip(t *testing.T) {
	serializer := NewJSONSerializer()
	request := &Message{Kind: KindRequest, ID: 7, Source: "n1"}
	response := newErrorResponse(request, errors.ErrDeactivating)

	wire, err := serializer.Encode(response)
	require.NoError(t, err)

	decoded, err := serializer.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, KindResponseError, decoded.Kind)
	assert.EqualValues(t, 7, decoded.Correlation)

	// well-known error kinds survive the wire
	assert.ErrorIs(t, decodeError(decoded.ErrorText), errors.ErrDeactivating)
}

func TestDecodeUnknownError(t *testing.T) {
	err := decodeError("something unexpected")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "something unexpected", remote.Text)
}
