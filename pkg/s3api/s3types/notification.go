// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3types

import "encoding/xml"

// Namespace is the S3 XML namespace used on configuration documents.
const Namespace = "http://s3.amazonaws.com/doc/2006-03-01/"

// NotificationConfiguration is the XML document accepted by PUT ?notification.
// Target groups are serialized in the order Topic, Queue, CloudFunction.
type NotificationConfiguration struct {
	XMLName                     xml.Name                     `xml:"NotificationConfiguration" json:"-"`
	XMLNS                       string                       `xml:"xmlns,attr,omitempty" json:"-"`
	TopicConfigurations         []TopicConfiguration         `xml:"TopicConfiguration,omitempty" json:"topic_configurations,omitempty"`
	QueueConfigurations         []QueueConfiguration         `xml:"QueueConfiguration,omitempty" json:"queue_configurations,omitempty"`
	CloudFunctionConfigurations []CloudFunctionConfiguration `xml:"CloudFunctionConfiguration,omitempty" json:"cloud_function_configurations,omitempty"`
}

// Empty reports whether the document carries no targets.
func (c *NotificationConfiguration) Empty() bool {
	return len(c.TopicConfigurations) == 0 &&
		len(c.QueueConfigurations) == 0 &&
		len(c.CloudFunctionConfigurations) == 0
}

// TopicConfiguration defines SNS topic notification.
type TopicConfiguration struct {
	ID       string              `xml:"Id,omitempty" json:"id,omitempty"`
	TopicArn string              `xml:"Topic" json:"topic_arn"`
	Events   []string            `xml:"Event" json:"events"`
	Filter   *NotificationFilter `xml:"Filter,omitempty" json:"filter,omitempty"`
}

// QueueConfiguration defines SQS queue notification.
type QueueConfiguration struct {
	ID       string              `xml:"Id,omitempty" json:"id,omitempty"`
	QueueArn string              `xml:"Queue" json:"queue_arn"`
	Events   []string            `xml:"Event" json:"events"`
	Filter   *NotificationFilter `xml:"Filter,omitempty" json:"filter,omitempty"`
}

// CloudFunctionConfiguration defines Lambda notification.
type CloudFunctionConfiguration struct {
	ID               string              `xml:"Id,omitempty" json:"id,omitempty"`
	CloudFunctionArn string              `xml:"CloudFunction" json:"cloud_function_arn"`
	Events           []string            `xml:"Event" json:"events"`
	Filter           *NotificationFilter `xml:"Filter,omitempty" json:"filter,omitempty"`
}

// NotificationFilter filters which objects trigger notifications.
type NotificationFilter struct {
	Key *NotificationFilterKey `xml:"S3Key,omitempty" json:"key,omitempty"`
}

// NotificationFilterKey filters by object key.
type NotificationFilterKey struct {
	FilterRules []NotificationFilterRule `xml:"FilterRule" json:"filter_rules"`
}

// NotificationFilterRule is a key filter rule for notifications.
type NotificationFilterRule struct {
	Name  string `xml:"Name" json:"name"` // prefix or suffix
	Value string `xml:"Value" json:"value"`
}
