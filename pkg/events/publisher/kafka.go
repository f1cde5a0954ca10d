// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeeDigitalWorks/zapnotify/pkg/events"
	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// KafkaPublisher publishes records to Kafka using sarama.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher creates a synchronous producer for cfg.
func NewKafkaPublisher(cfg events.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = "s3-events"
	}

	config, err := saramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer creation failed: %w", err)
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("kafka publisher connected")

	return &KafkaPublisher{producer: producer, topic: cfg.Topic}, nil
}

func saramaConfig(cfg events.KafkaConfig) (*sarama.Config, error) {
	config := sarama.NewConfig()
	config.ClientID = "zapnotify"
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	switch cfg.RequiredAcks {
	case 0:
		config.Producer.RequiredAcks = sarama.NoResponse
	case -1:
		config.Producer.RequiredAcks = sarama.WaitForAll
	default:
		config.Producer.RequiredAcks = sarama.WaitForLocal
	}

	switch cfg.Compression {
	case "gzip":
		config.Producer.Compression = sarama.CompressionGZIP
	case "lz4":
		config.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		config.Producer.Compression = sarama.CompressionZSTD
	case "none":
		config.Producer.Compression = sarama.CompressionNone
	default:
		config.Producer.Compression = sarama.CompressionSnappy
	}

	if cfg.BatchSize > 0 {
		config.Producer.Flush.MaxMessages = cfg.BatchSize
	}
	if cfg.BatchTimeout > 0 {
		config.Producer.Flush.Frequency = cfg.BatchTimeout
	}
	if cfg.Timeout > 0 {
		config.Producer.Timeout = cfg.Timeout
	}

	switch sarama.SASLMechanism(cfg.SASLMechanism) {
	case "":
	case sarama.SASLTypeSCRAMSHA256:
		enableSCRAM(config, cfg, sarama.SASLTypeSCRAMSHA256, scram.SHA256)
	case sarama.SASLTypeSCRAMSHA512:
		enableSCRAM(config, cfg, sarama.SASLTypeSCRAMSHA512, scram.SHA512)
	default:
		return nil, fmt.Errorf("unsupported kafka SASL mechanism %q", cfg.SASLMechanism)
	}

	// Key by bucket so records of one bucket stay ordered.
	config.Producer.Partitioner = sarama.NewHashPartitioner
	return config, nil
}

func enableSCRAM(config *sarama.Config, cfg events.KafkaConfig, mechanism sarama.SASLMechanism, hash scram.HashGeneratorFcn) {
	config.Net.SASL.Enable = true
	config.Net.SASL.User = cfg.Username
	config.Net.SASL.Password = cfg.Password
	config.Net.SASL.Mechanism = mechanism
	config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
		return &scramClient{mechanism: hash}
	}
}

// Name returns the publisher identifier.
func (p *KafkaPublisher) Name() string {
	return "kafka"
}

// Publish sends data keyed by bucket. A send in progress cannot be cancelled;
// it is bounded by KafkaConfig.Timeout and sarama's network timeouts, so ctx
// is only checked before sending.
func (p *KafkaPublisher) Publish(ctx context.Context, bucket string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(bucket),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}

	logger.Ctx(ctx).Debug().
		Str("topic", p.topic).
		Str("bucket", bucket).
		Int32("partition", partition).
		Int64("offset", offset).
		Int("size", len(data)).
		Msg("published record to kafka")
	return nil
}

// Close closes the Kafka producer.
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// scramClient implements sarama.SCRAMClient on top of xdg-go/scram.
type scramClient struct {
	mechanism    scram.HashGeneratorFcn
	conversation *scram.ClientConversation
}

func (c *scramClient) Begin(userName, password, authzID string) error {
	client, err := c.mechanism.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	c.conversation = client.NewConversation()
	return nil
}

func (c *scramClient) Step(challenge string) (string, error) {
	return c.conversation.Step(challenge)
}

func (c *scramClient) Done() bool {
	return c.conversation.Done()
}
