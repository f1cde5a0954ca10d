// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"net/url"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"
)

// Record is one bucket notification as delivered by the listen endpoint.
// See: https://docs.aws.amazon.com/AmazonS3/latest/userguide/notification-content-structure.html
type Record struct {
	EventVersion string    `json:"eventVersion"`
	EventSource  string    `json:"eventSource"`
	AWSRegion    string    `json:"awsRegion"`
	EventTime    time.Time `json:"eventTime"`
	EventName    string    `json:"eventName"`

	UserIdentity      UserIdentity      `json:"userIdentity"`
	RequestParameters RequestParameters `json:"requestParameters"`
	ResponseElements  ResponseElements  `json:"responseElements"`
	S3                Entity            `json:"s3"`
	Source            Source            `json:"source"`
}

// UserIdentity identifies the user who made the request.
type UserIdentity struct {
	PrincipalID string `json:"principalId"`
}

// RequestParameters contains request metadata.
type RequestParameters struct {
	PrincipalID     string `json:"principalId,omitempty"`
	Region          string `json:"region,omitempty"`
	SourceIPAddress string `json:"sourceIPAddress"`
}

// ResponseElements contains response metadata.
type ResponseElements struct {
	RequestID string `json:"x-amz-request-id"`
	HostID    string `json:"x-amz-id-2"`
	Origin    string `json:"x-minio-origin-endpoint,omitempty"`
}

// Entity contains the object storage part of a record.
type Entity struct {
	SchemaVersion   string       `json:"s3SchemaVersion"`
	ConfigurationID string       `json:"configurationId"`
	Bucket          BucketEntity `json:"bucket"`
	Object          ObjectEntity `json:"object"`
}

// BucketEntity contains bucket information.
type BucketEntity struct {
	Name          string       `json:"name"`
	OwnerIdentity UserIdentity `json:"ownerIdentity"`
	ARN           string       `json:"arn"`
}

// ObjectEntity contains object information. Key is URL-encoded on the wire.
type ObjectEntity struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size,omitempty"`
	ETag         string            `json:"eTag,omitempty"`
	ContentType  string            `json:"contentType,omitempty"`
	UserMetadata map[string]string `json:"userMetadata,omitempty"`
	VersionID    string            `json:"versionId,omitempty"`
	Sequencer    string            `json:"sequencer"`
}

// Source describes the client that caused the event.
type Source struct {
	Host      string `json:"host"`
	Port      string `json:"port"`
	UserAgent string `json:"userAgent"`
}

// Is reports whether the record's event name matches t, honouring
// trailing wildcards such as s3:ObjectCreated:*.
func (r Record) Is(t notification.EventType) bool {
	return t.Matches(r.EventName)
}

// ObjectKey returns the decoded object key, or the raw key if it is not
// valid URL encoding.
func (r Record) ObjectKey() string {
	k, err := url.QueryUnescape(r.S3.Object.Key)
	if err != nil {
		return r.S3.Object.Key
	}
	return k
}
