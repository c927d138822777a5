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

// Package nats provides a message carrier over NATS subjects. Every node
// listens on one subject derived from its cluster and identity; sends publish
// to the target's subject. Delivery inherits NATS core semantics, which match
// the runtime's at-most-once contract.
package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/log"
	"github.com/tochemey/orbit/node"
	"github.com/tochemey/orbit/transport"
)

const sourceHeader = "Orbit-Source"

// Transport is a transport.Transport carried over NATS.
type Transport struct {
	conn        *nats.Conn
	clusterName string
	local       node.Identity
	logger      log.Logger

	mu           sync.Mutex
	subscription *nats.Subscription
}

// enforce compilation error
var _ transport.Transport = (*Transport)(nil)

// Config configures the NATS transport.
type Config struct {
	// ServerURL is the NATS server address, e.g. nats://127.0.0.1:4222.
	ServerURL string
	// ClusterName scopes subjects so that clusters sharing a broker do not
	// cross-talk.
	ClusterName string
	// Identity is the local node identity.
	Identity node.Identity
	// Logger is the runtime logger. Defaults to log.DefaultLogger.
	Logger log.Logger
	// MaxConnectAttempts bounds the initial connection retries.
	MaxConnectAttempts int
}

// New connects to the NATS server and returns the transport. The initial
// connection is retried with exponential backoff.
func New(config *Config) (*Transport, error) {
	logger := config.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	attempts := config.MaxConnectAttempts
	if attempts <= 0 {
		attempts = 5
	}

	var conn *nats.Conn
	retrier := retry.NewRetrier(attempts, 100*time.Millisecond, time.Second)
	err := retrier.Run(func() error {
		var err error
		conn, err = nats.Connect(config.ServerURL,
			nats.Name(fmt.Sprintf("orbit-%s", config.Identity)),
			nats.MaxReconnects(-1))
		return err
	})
	if err != nil {
		return nil, errors.NewErrTransport(err)
	}

	return &Transport{
		conn:        conn,
		clusterName: config.ClusterName,
		local:       config.Identity,
		logger:      logger,
	}, nil
}

// Start subscribes to the local node subject and installs the receive
// callback.
func (t *Transport) Start(ctx context.Context, receiver transport.Receiver) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subscription != nil {
		return nil
	}

	subscription, err := t.conn.Subscribe(t.subject(t.local), func(msg *nats.Msg) {
		envelope := &transport.Envelope{
			To:      t.local,
			From:    node.Identity(msg.Header.Get(sourceHeader)),
			Payload: msg.Data,
		}
		receiver(ctx, envelope)
	})
	if err != nil {
		return errors.NewErrTransport(err)
	}

	t.subscription = subscription
	t.logger.Infof("nats transport listening on %s", t.subject(t.local))
	return nil
}

// Send publishes the envelope to the target node subject.
func (t *Transport) Send(_ context.Context, envelope *transport.Envelope) error {
	msg := nats.NewMsg(t.subject(envelope.To))
	msg.Header.Set(sourceHeader, envelope.From.String())
	msg.Data = envelope.Payload
	if err := t.conn.PublishMsg(msg); err != nil {
		return errors.NewErrTransport(err)
	}
	return nil
}

// Stop unsubscribes from the node subject, then drains and closes the
// connection.
func (t *Transport) Stop(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subscription != nil {
		if err := t.subscription.Unsubscribe(); err != nil {
			t.logger.Warnf("failed to unsubscribe: %v", err)
		}
		t.subscription = nil
	}
	if err := t.conn.Drain(); err != nil {
		return errors.NewErrTransport(err)
	}
	return nil
}

func (t *Transport) subject(identity node.Identity) string {
	return fmt.Sprintf("%s.node.%s", t.clusterName, identity)
}
