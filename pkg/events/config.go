// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package events consumes the bucket notification listen stream.
//
// A Poller issues long-lived GET requests against a bucket, decodes the
// newline-delimited JSON the server flushes, and hands each record to its
// callbacks. The publisher subpackage forwards those records to Redis and
// Kafka.
package events

import (
	"errors"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"
)

// Config holds listen and forwarding configuration.
type Config struct {
	// Listen selects what the poller subscribes to.
	Listen ListenConfig `mapstructure:"listen"`

	// Redis publisher configuration
	Redis RedisConfig `mapstructure:"redis"`

	// Kafka publisher configuration
	Kafka KafkaConfig `mapstructure:"kafka"`

	// Forward throttles delivery to publishers.
	Forward ForwardConfig `mapstructure:"forward"`
}

// ListenConfig holds the poller subscription.
type ListenConfig struct {
	Bucket string   `mapstructure:"bucket"`
	Prefix string   `mapstructure:"prefix"`
	Suffix string   `mapstructure:"suffix"`
	Events []string `mapstructure:"events"`
}

// EventTypes returns the configured events in order, skipping blanks.
func (c ListenConfig) EventTypes() []notification.EventType {
	return notification.ParseEventTypes(c.Events)
}

// RedisConfig holds Redis publisher settings.
type RedisConfig struct {
	// Enabled activates the Redis publisher.
	Enabled bool `mapstructure:"enabled"`

	// Addr is the Redis server address (e.g., "localhost:6379").
	Addr string `mapstructure:"addr"`

	// Password for Redis authentication (optional).
	Password string `mapstructure:"password"`

	// DB is the Redis database number (default: 0).
	DB int `mapstructure:"db"`

	// Channel is the channel prefix for publishing records.
	// Records are published to "{channel}:{bucket}" (default: "s3:events").
	Channel string `mapstructure:"channel"`

	// PoolSize is the maximum number of connections (default: 10).
	PoolSize int `mapstructure:"pool_size"`
}

// KafkaConfig holds Kafka publisher settings.
type KafkaConfig struct {
	// Enabled activates the Kafka publisher.
	Enabled bool `mapstructure:"enabled"`

	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`

	// Topic is the Kafka topic for records (default: "s3-events").
	Topic string `mapstructure:"topic"`

	// RequiredAcks: 0=none, 1=leader, -1=all (default: 1).
	RequiredAcks int `mapstructure:"required_acks"`

	// Compression: "none", "gzip", "snappy", "lz4", "zstd" (default: "snappy").
	Compression string `mapstructure:"compression"`

	// BatchSize is the maximum messages per batch (default: 100).
	BatchSize int `mapstructure:"batch_size"`

	// BatchTimeout is the maximum time to wait for a batch (default: 1s).
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`

	// Timeout bounds how long the broker may take to acknowledge a record
	// (default: forward.timeout). Dial and socket timeouts stay at sarama's defaults.
	Timeout time.Duration `mapstructure:"timeout"`

	// SASLMechanism: "", "SCRAM-SHA-256" or "SCRAM-SHA-512".
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
}

// ForwardConfig throttles the forwarder. A zero RatePerSecond disables the
// limit. Events, when set, restricts which records are forwarded; patterns
// ending in "*" match any suffix.
type ForwardConfig struct {
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Events        []string      `mapstructure:"events"`
}

// EventTypes returns the forwarded event patterns, skipping blanks.
func (c ForwardConfig) EventTypes() []notification.EventType {
	return notification.ParseEventTypes(c.Events)
}

// ErrNoBucket is returned by Validate when no bucket is configured.
var ErrNoBucket = errors.New("events: listen bucket is required")

// ErrNoBrokers is returned by Validate when Kafka is enabled without brokers.
var ErrNoBrokers = errors.New("events: kafka enabled without brokers")

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			DB:       0,
			Channel:  "s3:events",
			PoolSize: 10,
		},
		Kafka: KafkaConfig{
			Enabled:      false,
			Topic:        "s3-events",
			RequiredAcks: 1,
			Compression:  "snappy",
			BatchSize:    100,
			BatchTimeout: time.Second,
		},
		Forward: ForwardConfig{
			Burst:   1,
			Timeout: 5 * time.Second,
		},
	}
}

// Validate applies defaults for invalid values and reports settings that
// cannot be defaulted.
func (c *Config) Validate() error {
	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "s3:events"
	}
	if c.Redis.PoolSize <= 0 {
		c.Redis.PoolSize = 10
	}

	// Kafka defaults
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "s3-events"
	}
	if c.Kafka.RequiredAcks < -1 || c.Kafka.RequiredAcks > 1 {
		c.Kafka.RequiredAcks = 1
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "snappy"
	}
	if c.Kafka.BatchSize <= 0 {
		c.Kafka.BatchSize = 100
	}
	if c.Kafka.BatchTimeout <= 0 {
		c.Kafka.BatchTimeout = time.Second
	}

	// Forward defaults
	if c.Forward.Burst <= 0 {
		c.Forward.Burst = 1
	}
	if c.Forward.Timeout <= 0 {
		c.Forward.Timeout = 5 * time.Second
	}
	if c.Kafka.Timeout <= 0 {
		c.Kafka.Timeout = c.Forward.Timeout
	}

	if c.Listen.Bucket == "" {
		return ErrNoBucket
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return ErrNoBrokers
	}
	return nil
}

// HasPublishers returns true if at least one publisher is enabled.
func (c *Config) HasPublishers() bool {
	return c.Redis.Enabled || c.Kafka.Enabled
}
