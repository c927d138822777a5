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
	"encoding/json"
	"strings"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/node"
)

// Serializer encodes messages into the wire payload and back. The runtime
// only requires that ids, references and arguments round-trip intact; the
// concrete encoding is pluggable.
type Serializer interface {
	// Encode turns a message into its wire payload.
	Encode(message *Message) ([]byte, error)
	// Decode reconstructs a message from its wire payload.
	Decode(payload []byte) (*Message, error)
}

// wireEnvelope is the on-wire shape of a message.
type wireEnvelope struct {
	Kind        int               `json:"kind"`
	ID          uint64            `json:"id"`
	Correlation uint64            `json:"correlation,omitempty"`
	Source      string            `json:"source"`
	Target      string            `json:"target,omitempty"`
	Interface   string            `json:"interface,omitempty"`
	Key         string            `json:"key,omitempty"`
	Method      string            `json:"method,omitempty"`
	Args        []any             `json:"args,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Value       any               `json:"value,omitempty"`
	Error       string            `json:"error,omitempty"`
	SentAt      int64             `json:"sentAt"`
}

// JSONSerializer is the default codec. Argument values survive as JSON
// scalars and containers; applications exchanging richer types plug their
// own Serializer.
type JSONSerializer struct{}

// enforce compilation error
var _ Serializer = (*JSONSerializer)(nil)

// NewJSONSerializer creates the default JSON codec.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Encode turns a message into its wire payload.
func (s *JSONSerializer) Encode(message *Message) ([]byte, error) {
	envelope := &wireEnvelope{
		Kind:        int(message.Kind),
		ID:          message.ID,
		Correlation: message.Correlation,
		Source:      message.Source.String(),
		Value:       message.Value,
		Error:       message.ErrorText,
		SentAt:      message.SentAt,
	}
	if target, ok := message.Target.Unicast(); ok {
		envelope.Target = target.String()
	}
	if message.Invocation != nil {
		envelope.Interface = message.Invocation.Reference.Interface()
		envelope.Key = message.Invocation.Reference.Key()
		envelope.Method = message.Invocation.Method
		envelope.Args = message.Invocation.Args
		envelope.Headers = message.Invocation.Headers
	}
	return json.Marshal(envelope)
}

// Decode reconstructs a message from its wire payload.
func (s *JSONSerializer) Decode(payload []byte) (*Message, error) {
	envelope := new(wireEnvelope)
	if err := json.Unmarshal(payload, envelope); err != nil {
		return nil, err
	}

	message := &Message{
		Kind:        Kind(envelope.Kind),
		ID:          envelope.ID,
		Correlation: envelope.Correlation,
		Source:      node.Identity(envelope.Source),
		Target:      node.AnyTarget(),
		Value:       envelope.Value,
		ErrorText:   envelope.Error,
		SentAt:      envelope.SentAt,
	}
	if envelope.Target != "" {
		message.Target = node.Unicast(node.Identity(envelope.Target))
	}
	if message.Kind == KindRequest {
		message.Invocation = &addressable.Invocation{
			Reference: addressable.NewReference(envelope.Interface, envelope.Key),
			Method:    envelope.Method,
			Args:      envelope.Args,
			Headers:   envelope.Headers,
		}
	}
	return message, nil
}

// knownErrors are the error kinds a caller may branch on after a remote
// failure; decodeError re-attaches them when the wire text carries one.
var knownErrors = []error{
	errors.ErrDeactivating,
	errors.ErrCapacityExceeded,
	errors.ErrNoActiveAddressable,
	errors.ErrNoAvailableNode,
	errors.ErrActivationFailure,
	errors.ErrDeactivationFailure,
	errors.ErrMethodNotImplemented,
}

// decodeError rebuilds the caller-facing error from the wire text.
func decodeError(text string) error {
	for _, known := range knownErrors {
		if strings.HasPrefix(text, known.Error()) {
			return known
		}
	}
	return &RemoteError{Text: text}
}

// RemoteError carries a failure raised on the hosting node.
type RemoteError struct {
	Text string
}

// Error implements the standard error interface.
func (e *RemoteError) Error() string {
	return e.Text
}
