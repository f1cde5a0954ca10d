// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import "fmt"

// Kind discriminates the three supported notification targets.
type Kind int

const (
	// KindUnknown is the kind of a zero Target. Config.Add rejects it with
	// ErrUnknownTargetKind.
	KindUnknown Kind = iota
	// KindTopic is a simple notification service topic.
	KindTopic
	// KindQueue is a simple queue service queue.
	KindQueue
	// KindCloudFunction is a lambda function.
	KindCloudFunction
)

// Wire tags for each Kind.
const (
	TagTopic         = "TopicConfiguration"
	TagQueue         = "QueueConfiguration"
	TagCloudFunction = "CloudFunctionConfiguration"
)

// Tag returns the configuration element name for k, or "" for KindUnknown.
func (k Kind) Tag() string {
	switch k {
	case KindTopic:
		return TagTopic
	case KindQueue:
		return TagQueue
	case KindCloudFunction:
		return TagCloudFunction
	}
	return ""
}

func (k Kind) String() string {
	switch k {
	case KindTopic:
		return "topic"
	case KindQueue:
		return "queue"
	case KindCloudFunction:
		return "cloud-function"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// TargetConfig holds the settings shared by every target kind.
type TargetConfig struct {
	ID     string
	Events []EventType
	Filter *EventFilter
}

// SetID sets the configuration id. Last write wins.
func (c *TargetConfig) SetID(id string) {
	c.ID = id
}

// AddEvent appends an event name. Names are not checked against KnownEventTypes.
func (c *TargetConfig) AddEvent(name EventType) {
	c.Events = append(c.Events, name)
}

// AddFilterPrefix appends a prefix rule, creating the filter on first use.
func (c *TargetConfig) AddFilterPrefix(prefix string) {
	c.filter().add(RulePrefix, prefix)
}

// AddFilterSuffix appends a suffix rule, creating the filter on first use.
func (c *TargetConfig) AddFilterSuffix(suffix string) {
	c.filter().add(RuleSuffix, suffix)
}

func (c *TargetConfig) filter() *EventFilter {
	if c.Filter == nil {
		c.Filter = &EventFilter{}
	}
	return c.Filter
}

// Target is one notification destination. The kind and ARN are fixed by the
// constructor; a zero Target has KindUnknown and is rejected by Config.Add.
type Target struct {
	TargetConfig

	kind Kind
	arn  string
}

// NewTopicConfig returns a target delivering to an SNS-style topic.
func NewTopicConfig(arn string) *Target {
	return &Target{kind: KindTopic, arn: arn}
}

// NewQueueConfig returns a target delivering to an SQS-style queue.
func NewQueueConfig(arn string) *Target {
	return &Target{kind: KindQueue, arn: arn}
}

// NewCloudFunctionConfig returns a target invoking a lambda function.
func NewCloudFunctionConfig(arn string) *Target {
	return &Target{kind: KindCloudFunction, arn: arn}
}

// Kind returns the target's variant.
func (t *Target) Kind() Kind {
	return t.kind
}

// ARN returns the topic, queue or function ARN given at construction.
func (t *Target) ARN() string {
	return t.arn
}

// Clone returns a deep copy of t.
func (t *Target) Clone() *Target {
	c := &Target{kind: t.kind, arn: t.arn}
	c.ID = t.ID
	if t.Events != nil {
		c.Events = append([]EventType(nil), t.Events...)
	}
	c.Filter = t.Filter.clone()
	return c
}

func (t *Target) eventNames() []string {
	names := make([]string, len(t.Events))
	for i, e := range t.Events {
		names[i] = string(e)
	}
	return names
}
