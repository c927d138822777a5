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
	"context"
	"time"

	"github.com/tochemey/orbit/addressable"
	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/future"
)

// ProxyFactory mints client proxies for addressable references.
type ProxyFactory struct {
	stage *Stage
}

// GetReference returns a proxy for the addressable identified by the given
// interface id and key. The proxy is cheap and safe to share.
func (f *ProxyFactory) GetReference(interfaceID, key string) *Proxy {
	return &Proxy{
		stage:     f.stage,
		reference: addressable.NewReference(interfaceID, key),
	}
}

// Proxy is a client handle on one addressable. Method calls produce
// outbound invocations through the pipeline and await the correlated
// completion.
type Proxy struct {
	stage     *Stage
	reference addressable.Reference
	timeout   time.Duration
	headers   map[string]string
}

// Reference returns the addressable reference the proxy targets.
func (p *Proxy) Reference() addressable.Reference {
	return p.reference
}

// WithTimeout returns a proxy whose calls use the given timeout instead of
// the interface default.
func (p *Proxy) WithTimeout(timeout time.Duration) *Proxy {
	clone := *p
	clone.timeout = timeout
	return &clone
}

// WithHeaders returns a proxy attaching the given headers to every call.
func (p *Proxy) WithHeaders(headers map[string]string) *Proxy {
	clone := *p
	clone.headers = headers
	return &clone
}

// Invoke dispatches one method call and blocks for its result.
func (p *Proxy) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	return p.InvokeAsync(ctx, method, args...).Await(ctx)
}

// InvokeAsync dispatches one method call and returns the pending completion.
// The completion settles with the invocation result, a routing or capacity
// failure, or ErrTimeout after the interface timeout.
func (p *Proxy) InvokeAsync(ctx context.Context, method string, args ...any) *future.Completion {
	completion := future.New()
	if !p.stage.Running() {
		completion.Failure(errors.ErrStageNotRunning)
		return completion
	}

	invocation := &addressable.Invocation{
		Reference: p.reference,
		Method:    method,
		Args:      args,
		Headers:   p.headers,
	}

	message := newRequestMessage(invocation, completion, p.timeout)
	// a failed traversal has already settled the completion
	_ = p.stage.pipeline.Outbound(ctx, message)
	return completion
}
