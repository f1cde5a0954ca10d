// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import "github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3types"

// Filter rule names.
const (
	RulePrefix = "prefix"
	RuleSuffix = "suffix"
)

// FilterRule is a single key-matching rule.
type FilterRule struct {
	Name  string
	Value string
}

// EventFilter is the ordered list of S3Key rules attached to a target.
// Rules are append-only; duplicates are kept and order is significant on the wire.
type EventFilter struct {
	Rules []FilterRule
}

func (f *EventFilter) add(name, value string) {
	f.Rules = append(f.Rules, FilterRule{Name: name, Value: value})
}

func (f *EventFilter) clone() *EventFilter {
	if f == nil {
		return nil
	}
	return &EventFilter{Rules: append([]FilterRule(nil), f.Rules...)}
}

func (f *EventFilter) wire() *s3types.NotificationFilter {
	if f == nil {
		return nil
	}
	rules := make([]s3types.NotificationFilterRule, len(f.Rules))
	for i, r := range f.Rules {
		rules[i] = s3types.NotificationFilterRule{Name: r.Name, Value: r.Value}
	}
	return &s3types.NotificationFilter{
		Key: &s3types.NotificationFilterKey{FilterRules: rules},
	}
}

func filterFromWire(f *s3types.NotificationFilter) *EventFilter {
	if f == nil || f.Key == nil {
		return nil
	}
	out := &EventFilter{}
	for _, r := range f.Key.FilterRules {
		out.add(r.Name, r.Value)
	}
	return out
}
