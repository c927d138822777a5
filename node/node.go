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

package node

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

// Identity is an opaque string uniquely naming a node within a cluster.
type Identity string

// NewIdentity generates a random node identity.
func NewIdentity() Identity {
	return Identity(uuid.NewString())
}

// String returns the string representation of the identity.
func (i Identity) String() string {
	return string(i)
}

// Status represents the lifecycle status of a node.
type Status int

const (
	// Idle means the node has been created but not started.
	Idle Status = iota
	// Starting means the node is starting up.
	Starting
	// Running means the node is serving invocations.
	Running
	// Stopping means the node is shutting down.
	Stopping
	// Stopped means the node has shut down.
	Stopped
)

var statuses = [...]string{
	Idle:     "IDLE",
	Starting: "STARTING",
	Running:  "RUNNING",
	Stopping: "STOPPING",
	Stopped:  "STOPPED",
}

// String returns the text representation of the status.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statuses) {
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
	return statuses[s]
}

// Mode states whether a node hosts addressables or only invokes them.
type Mode int

const (
	// Host nodes activate and run addressable instances.
	Host Mode = iota
	// Client nodes route invocations but never host instances.
	Client
)

// Info describes a node: its cluster, identity, mode, status and the
// addressable interfaces it can host.
type Info struct {
	ClusterName  string
	Identity     Identity
	Mode         Mode
	Status       Status
	Capabilities mapset.Set[string]
}

// NewInfo creates a node Info with an empty capability set.
func NewInfo(clusterName string, identity Identity, mode Mode) *Info {
	return &Info{
		ClusterName:  clusterName,
		Identity:     identity,
		Mode:         mode,
		Status:       Idle,
		Capabilities: mapset.NewSet[string](),
	}
}

// CanHost returns true when the node hosts instances of the given interface.
func (n *Info) CanHost(interfaceID string) bool {
	return n.Mode == Host && n.Capabilities.Contains(interfaceID)
}
