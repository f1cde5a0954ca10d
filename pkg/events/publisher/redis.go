// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/events"
	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const redisDialTimeout = 5 * time.Second

// RedisPublisher publishes records to Redis Pub/Sub.
type RedisPublisher struct {
	client  *redis.Client
	channel string // Channel prefix (e.g., "s3:events")
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg events.RedisConfig) (*RedisPublisher, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Channel == "" {
		cfg.Channel = "s3:events"
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Str("channel", cfg.Channel).
		Msg("redis publisher connected")

	return &RedisPublisher{
		client:  client,
		channel: cfg.Channel,
	}, nil
}

// Name returns the publisher identifier.
func (p *RedisPublisher) Name() string {
	return "redis"
}

// Channel returns the channel records for bucket are published on.
func (p *RedisPublisher) Channel(bucket string) string {
	return p.channel + ":" + bucket
}

// Publish sends data to the channel "{prefix}:{bucket}".
func (p *RedisPublisher) Publish(ctx context.Context, bucket string, data []byte) error {
	channel := p.Channel(bucket)
	result := p.client.Publish(ctx, channel, data)
	if err := result.Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}

	logger.Debug().
		Str("channel", channel).
		Int64("subscribers", result.Val()).
		Msg("published record to redis")
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
