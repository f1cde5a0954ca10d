// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package publisher forwards notification records received by a Poller to
// Redis Pub/Sub and Kafka.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeeDigitalWorks/zapnotify/pkg/events"
)

// Publisher is the interface for record delivery backends.
type Publisher interface {
	// Name returns the publisher identifier (e.g., "redis", "kafka").
	Name() string

	// Publish sends an encoded record batch for bucket.
	Publish(ctx context.Context, bucket string, data []byte) error

	// Close cleanly shuts down the publisher.
	Close() error
}

// FromConfig opens every publisher enabled in cfg. On failure the
// publishers opened so far are closed.
func FromConfig(ctx context.Context, cfg events.Config) ([]Publisher, error) {
	var pubs []Publisher
	fail := func(err error) ([]Publisher, error) {
		for _, p := range pubs {
			_ = p.Close()
		}
		return nil, err
	}

	if cfg.Redis.Enabled {
		p, err := NewRedisPublisher(ctx, cfg.Redis)
		if err != nil {
			return fail(fmt.Errorf("redis publisher: %w", err))
		}
		pubs = append(pubs, p)
	}
	if cfg.Kafka.Enabled {
		p, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return fail(fmt.Errorf("kafka publisher: %w", err))
		}
		pubs = append(pubs, p)
	}
	return pubs, nil
}

// CloseAll closes pubs and joins their errors.
func CloseAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
