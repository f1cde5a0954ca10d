// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import "strings"

// EventType is an S3 event name such as "s3:ObjectCreated:Put".
type EventType string

// S3 event names accepted in target configurations and listen filters.
// See: https://docs.aws.amazon.com/AmazonS3/latest/userguide/notification-how-to-event-types-and-destinations.html
const (
	// Object created events
	ObjectCreatedAll                     EventType = "s3:ObjectCreated:*"
	ObjectCreatedPut                     EventType = "s3:ObjectCreated:Put"
	ObjectCreatedPost                    EventType = "s3:ObjectCreated:Post"
	ObjectCreatedCopy                    EventType = "s3:ObjectCreated:Copy"
	ObjectCreatedCompleteMultipartUpload EventType = "s3:ObjectCreated:CompleteMultipartUpload"

	// Object removed events
	ObjectRemovedAll                 EventType = "s3:ObjectRemoved:*"
	ObjectRemovedDelete              EventType = "s3:ObjectRemoved:Delete"
	ObjectRemovedDeleteMarkerCreated EventType = "s3:ObjectRemoved:DeleteMarkerCreated"

	ObjectReducedRedundancyLostObject EventType = "s3:ReducedRedundancyLostObject"
)

// KnownEventTypes lists the event names defined by this package.
var KnownEventTypes = []EventType{
	ObjectCreatedAll,
	ObjectCreatedPut,
	ObjectCreatedPost,
	ObjectCreatedCopy,
	ObjectCreatedCompleteMultipartUpload,
	ObjectRemovedAll,
	ObjectRemovedDelete,
	ObjectRemovedDeleteMarkerCreated,
	ObjectReducedRedundancyLostObject,
}

// String returns the event name.
func (e EventType) String() string {
	return string(e)
}

// Known reports whether e is one of KnownEventTypes.
func (e EventType) Known() bool {
	for _, k := range KnownEventTypes {
		if k == e {
			return true
		}
	}
	return false
}

// Matches checks if an event name matches e.
// A trailing "*" matches any suffix, so "s3:ObjectCreated:*" matches "s3:ObjectCreated:Put".
func (e EventType) Matches(eventName string) bool {
	pattern := string(e)
	if pattern == eventName {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(eventName, prefix)
	}
	return false
}

// ParseEventTypes converts raw event names, as read from flags or config, into EventTypes.
func ParseEventTypes(names []string) []EventType {
	if len(names) == 0 {
		return nil
	}
	out := make([]EventType, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, EventType(n))
	}
	return out
}
