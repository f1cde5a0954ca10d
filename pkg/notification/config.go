// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package notification builds bucket event-notification configurations.
//
// A Config groups Topic, Queue and CloudFunction targets the way the
// PUT ?notification document expects them:
//
//	cfg := &notification.Config{}
//	arn := notification.BuildARN("minio", "sqs", "us-east-1", "1", "webhook")
//	q := notification.NewQueueConfig(arn)
//	q.AddEvent(notification.ObjectCreatedAll)
//	q.AddFilterSuffix(".jpg")
//	if err := cfg.Add(q); err != nil { ... }
package notification

import (
	"encoding/xml"
	"errors"

	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3types"
)

// ErrUnknownTargetKind is returned by Config.Add for targets not built by a
// New*Config constructor.
var ErrUnknownTargetKind = errors.New("notification: unknown target kind")

var kindOrder = []Kind{KindTopic, KindQueue, KindCloudFunction}

// Config aggregates target configurations by kind.
// Add snapshots the target, so mutating a target after adding it does not
// change the Config.
type Config struct {
	groups map[Kind][]*Target
}

// Add appends a copy of target under the group for its kind.
func (c *Config) Add(target *Target) error {
	if target == nil {
		return ErrUnknownTargetKind
	}
	switch target.Kind() {
	case KindTopic, KindQueue, KindCloudFunction:
	default:
		return ErrUnknownTargetKind
	}
	if c.groups == nil {
		c.groups = make(map[Kind][]*Target)
	}
	c.groups[target.Kind()] = append(c.groups[target.Kind()], target.Clone())
	return nil
}

// Topics returns the topic targets in insertion order.
func (c *Config) Topics() []*Target { return c.group(KindTopic) }

// Queues returns the queue targets in insertion order.
func (c *Config) Queues() []*Target { return c.group(KindQueue) }

// CloudFunctions returns the lambda targets in insertion order.
func (c *Config) CloudFunctions() []*Target { return c.group(KindCloudFunction) }

func (c *Config) group(k Kind) []*Target {
	targets := c.groups[k]
	out := make([]*Target, len(targets))
	for i, t := range targets {
		out[i] = t.Clone()
	}
	return out
}

// Tags returns the wire tags that hold at least one target, in wire order.
func (c *Config) Tags() []string {
	var tags []string
	for _, k := range kindOrder {
		if _, ok := c.groups[k]; ok {
			tags = append(tags, k.Tag())
		}
	}
	return tags
}

// Len returns the total number of targets.
func (c *Config) Len() int {
	n := 0
	for _, g := range c.groups {
		n += len(g)
	}
	return n
}

// Wire converts the Config into its XML document form.
func (c *Config) Wire() *s3types.NotificationConfiguration {
	out := &s3types.NotificationConfiguration{XMLNS: s3types.Namespace}
	for _, t := range c.groups[KindTopic] {
		out.TopicConfigurations = append(out.TopicConfigurations, s3types.TopicConfiguration{
			ID:       t.ID,
			TopicArn: t.arn,
			Events:   t.eventNames(),
			Filter:   t.Filter.wire(),
		})
	}
	for _, t := range c.groups[KindQueue] {
		out.QueueConfigurations = append(out.QueueConfigurations, s3types.QueueConfiguration{
			ID:       t.ID,
			QueueArn: t.arn,
			Events:   t.eventNames(),
			Filter:   t.Filter.wire(),
		})
	}
	for _, t := range c.groups[KindCloudFunction] {
		out.CloudFunctionConfigurations = append(out.CloudFunctionConfigurations, s3types.CloudFunctionConfiguration{
			ID:               t.ID,
			CloudFunctionArn: t.arn,
			Events:           t.eventNames(),
			Filter:           t.Filter.wire(),
		})
	}
	return out
}

// MarshalXML encodes the Config as a NotificationConfiguration document.
func (c *Config) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	return e.Encode(c.Wire())
}

// FromWire rebuilds a Config from a decoded document.
func FromWire(doc *s3types.NotificationConfiguration) *Config {
	cfg := &Config{}
	if doc == nil {
		return cfg
	}
	for _, tc := range doc.TopicConfigurations {
		cfg.mustAdd(fromWire(NewTopicConfig(tc.TopicArn), tc.ID, tc.Events, tc.Filter))
	}
	for _, qc := range doc.QueueConfigurations {
		cfg.mustAdd(fromWire(NewQueueConfig(qc.QueueArn), qc.ID, qc.Events, qc.Filter))
	}
	for _, fc := range doc.CloudFunctionConfigurations {
		cfg.mustAdd(fromWire(NewCloudFunctionConfig(fc.CloudFunctionArn), fc.ID, fc.Events, fc.Filter))
	}
	return cfg
}

func fromWire(t *Target, id string, events []string, filter *s3types.NotificationFilter) *Target {
	t.SetID(id)
	for _, e := range events {
		t.AddEvent(EventType(e))
	}
	t.Filter = filterFromWire(filter)
	return t
}

// mustAdd is only used with targets from the constructors, which Add always accepts.
func (c *Config) mustAdd(t *Target) {
	if err := c.Add(t); err != nil {
		panic(err)
	}
}
