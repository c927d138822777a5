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
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tochemey/orbit/errors"
	"github.com/tochemey/orbit/node"
)

const (
	// DefaultTickRate is the period of the stage maintenance tick.
	DefaultTickRate = time.Second
	// DefaultTimeToLive is the idle time after which an instance deactivates.
	DefaultTimeToLive = 10 * time.Minute
	// DefaultMessageTimeout bounds one invocation round-trip.
	DefaultMessageTimeout = 10 * time.Second
	// DefaultPipelineBufferCount bounds the pipeline admission queue.
	DefaultPipelineBufferCount = 10_000
	// DefaultMailboxCapacity bounds each handler mailbox.
	DefaultMailboxCapacity = 128
	// DefaultShutdownTimeout bounds the parallel deactivation on stop.
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultActivationMaxRetries bounds the OnActivate retries.
	DefaultActivationMaxRetries = 5
	// DefaultActivationTimeout bounds one activation attempt run.
	DefaultActivationTimeout = time.Second
)

// Config carries the stage settings. The zero value is not usable; start
// from DefaultConfig or FromFile.
type Config struct {
	// ClusterName names the cluster the node joins.
	ClusterName string `yaml:"clusterName"`
	// NodeIdentity uniquely names this node. Defaults to a random identity.
	NodeIdentity string `yaml:"nodeIdentity"`
	// NodeMode is "host" or "client".
	NodeMode string `yaml:"nodeMode"`
	// TickRate is the period of the maintenance tick.
	TickRate time.Duration `yaml:"tickRate"`
	// TimeToLive is the default idle deactivation window.
	TimeToLive time.Duration `yaml:"timeToLive"`
	// MessageTimeout is the default invocation round-trip bound.
	MessageTimeout time.Duration `yaml:"messageTimeout"`
	// PipelineBufferCount bounds the pipeline admission queue.
	PipelineBufferCount int `yaml:"pipelineBufferCount"`
	// MailboxCapacity bounds each handler mailbox.
	MailboxCapacity int `yaml:"mailboxCapacity"`
	// ShutdownTimeout bounds the parallel deactivation on stop.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// ActivationMaxRetries bounds the OnActivate retries.
	ActivationMaxRetries int `yaml:"activationMaxRetries"`
	// ActivationTimeout bounds one activation attempt run.
	ActivationTimeout time.Duration `yaml:"activationTimeout"`
	// Compression toggles the zstd wire compression step.
	Compression bool `yaml:"compression"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	return &Config{
		ClusterName:          "orbit",
		NodeIdentity:         node.NewIdentity().String(),
		NodeMode:             "host",
		TickRate:             DefaultTickRate,
		TimeToLive:           DefaultTimeToLive,
		MessageTimeout:       DefaultMessageTimeout,
		PipelineBufferCount:  DefaultPipelineBufferCount,
		MailboxCapacity:      DefaultMailboxCapacity,
		ShutdownTimeout:      DefaultShutdownTimeout,
		ActivationMaxRetries: DefaultActivationMaxRetries,
		ActivationTimeout:    DefaultActivationTimeout,
	}
}

// UnmarshalYAML decodes the config from YAML. Durations accept the Go
// syntax, e.g. "250ms" or "10m".
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var file struct {
		ClusterName          string `yaml:"clusterName"`
		NodeIdentity         string `yaml:"nodeIdentity"`
		NodeMode             string `yaml:"nodeMode"`
		TickRate             string `yaml:"tickRate"`
		TimeToLive           string `yaml:"timeToLive"`
		MessageTimeout       string `yaml:"messageTimeout"`
		PipelineBufferCount  *int   `yaml:"pipelineBufferCount"`
		MailboxCapacity      *int   `yaml:"mailboxCapacity"`
		ShutdownTimeout      string `yaml:"shutdownTimeout"`
		ActivationMaxRetries *int   `yaml:"activationMaxRetries"`
		ActivationTimeout    string `yaml:"activationTimeout"`
		Compression          *bool  `yaml:"compression"`
	}
	if err := value.Decode(&file); err != nil {
		return err
	}

	if file.ClusterName != "" {
		c.ClusterName = file.ClusterName
	}
	if file.NodeIdentity != "" {
		c.NodeIdentity = file.NodeIdentity
	}
	if file.NodeMode != "" {
		c.NodeMode = file.NodeMode
	}
	if file.PipelineBufferCount != nil {
		c.PipelineBufferCount = *file.PipelineBufferCount
	}
	if file.MailboxCapacity != nil {
		c.MailboxCapacity = *file.MailboxCapacity
	}
	if file.ActivationMaxRetries != nil {
		c.ActivationMaxRetries = *file.ActivationMaxRetries
	}
	if file.Compression != nil {
		c.Compression = *file.Compression
	}

	for _, field := range []struct {
		raw  string
		into *time.Duration
	}{
		{file.TickRate, &c.TickRate},
		{file.TimeToLive, &c.TimeToLive},
		{file.MessageTimeout, &c.MessageTimeout},
		{file.ShutdownTimeout, &c.ShutdownTimeout},
		{file.ActivationTimeout, &c.ActivationTimeout},
	} {
		if field.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(field.raw)
		if err != nil {
			return err
		}
		*field.into = parsed
	}
	return nil
}

// FromFile loads a YAML config file over the defaults.
func FromFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the config for invalid settings.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ClusterName) == "",
		strings.TrimSpace(c.NodeIdentity) == "",
		c.TickRate <= 0,
		c.TimeToLive <= 0,
		c.MessageTimeout <= 0,
		c.PipelineBufferCount <= 0,
		c.MailboxCapacity <= 0,
		c.ShutdownTimeout <= 0,
		c.ActivationMaxRetries <= 0,
		c.ActivationTimeout <= 0:
		return errors.ErrInvalidConfig
	}
	if !strings.EqualFold(c.NodeMode, "host") && !strings.EqualFold(c.NodeMode, "client") {
		return errors.ErrInvalidConfig
	}
	return nil
}

// Mode returns the node mode.
func (c *Config) Mode() node.Mode {
	if strings.EqualFold(c.NodeMode, "client") {
		return node.Client
	}
	return node.Host
}
