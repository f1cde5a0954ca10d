// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3types"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// SetBucketNotification replaces the notification configuration of bucket.
// A nil or empty cfg clears it.
func (c *Client) SetBucketNotification(ctx context.Context, bucket string, cfg *notification.Config) error {
	if err := utils.ValidateBucketName(bucket); err != nil {
		return err
	}
	if cfg == nil {
		cfg = &notification.Config{}
	}

	_, err := c.api.PutBucketNotificationConfiguration(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket:                    aws.String(bucket),
		NotificationConfiguration: toSDK(cfg.Wire()),
	})
	if err != nil {
		return fmt.Errorf("put bucket notification %s: %w", bucket, err)
	}

	c.log.Info().
		Str("bucket", bucket).
		Int("targets", cfg.Len()).
		Msg("bucket notification updated")
	return nil
}

// GetBucketNotification returns the notification configuration of bucket.
func (c *Client) GetBucketNotification(ctx context.Context, bucket string) (*notification.Config, error) {
	if err := utils.ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	out, err := c.api.GetBucketNotificationConfiguration(ctx, &s3.GetBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("get bucket notification %s: %w", bucket, err)
	}
	return notification.FromWire(fromSDK(out)), nil
}

// RemoveAllBucketNotification clears every target on bucket.
func (c *Client) RemoveAllBucketNotification(ctx context.Context, bucket string) error {
	return c.SetBucketNotification(ctx, bucket, nil)
}

func toSDK(doc *s3types.NotificationConfiguration) *types.NotificationConfiguration {
	out := &types.NotificationConfiguration{}
	for _, tc := range doc.TopicConfigurations {
		out.TopicConfigurations = append(out.TopicConfigurations, types.TopicConfiguration{
			Id:       optional(tc.ID),
			TopicArn: aws.String(tc.TopicArn),
			Events:   sdkEvents(tc.Events),
			Filter:   sdkFilter(tc.Filter),
		})
	}
	for _, qc := range doc.QueueConfigurations {
		out.QueueConfigurations = append(out.QueueConfigurations, types.QueueConfiguration{
			Id:       optional(qc.ID),
			QueueArn: aws.String(qc.QueueArn),
			Events:   sdkEvents(qc.Events),
			Filter:   sdkFilter(qc.Filter),
		})
	}
	for _, fc := range doc.CloudFunctionConfigurations {
		out.LambdaFunctionConfigurations = append(out.LambdaFunctionConfigurations, types.LambdaFunctionConfiguration{
			Id:                optional(fc.ID),
			LambdaFunctionArn: aws.String(fc.CloudFunctionArn),
			Events:            sdkEvents(fc.Events),
			Filter:            sdkFilter(fc.Filter),
		})
	}
	return out
}

func fromSDK(out *s3.GetBucketNotificationConfigurationOutput) *s3types.NotificationConfiguration {
	doc := &s3types.NotificationConfiguration{}
	for _, tc := range out.TopicConfigurations {
		doc.TopicConfigurations = append(doc.TopicConfigurations, s3types.TopicConfiguration{
			ID:       aws.ToString(tc.Id),
			TopicArn: aws.ToString(tc.TopicArn),
			Events:   wireEvents(tc.Events),
			Filter:   wireFilter(tc.Filter),
		})
	}
	for _, qc := range out.QueueConfigurations {
		doc.QueueConfigurations = append(doc.QueueConfigurations, s3types.QueueConfiguration{
			ID:       aws.ToString(qc.Id),
			QueueArn: aws.ToString(qc.QueueArn),
			Events:   wireEvents(qc.Events),
			Filter:   wireFilter(qc.Filter),
		})
	}
	for _, fc := range out.LambdaFunctionConfigurations {
		doc.CloudFunctionConfigurations = append(doc.CloudFunctionConfigurations, s3types.CloudFunctionConfiguration{
			ID:               aws.ToString(fc.Id),
			CloudFunctionArn: aws.ToString(fc.LambdaFunctionArn),
			Events:           wireEvents(fc.Events),
			Filter:           wireFilter(fc.Filter),
		})
	}
	return doc
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func sdkEvents(in []string) []types.Event {
	out := make([]types.Event, len(in))
	for i, e := range in {
		out[i] = types.Event(e)
	}
	return out
}

func wireEvents(in []types.Event) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, e := range in {
		out[i] = string(e)
	}
	return out
}

func sdkFilter(f *s3types.NotificationFilter) *types.NotificationConfigurationFilter {
	if f == nil || f.Key == nil {
		return nil
	}
	rules := make([]types.FilterRule, len(f.Key.FilterRules))
	for i, r := range f.Key.FilterRules {
		rules[i] = types.FilterRule{Name: types.FilterRuleName(r.Name), Value: aws.String(r.Value)}
	}
	return &types.NotificationConfigurationFilter{Key: &types.S3KeyFilter{FilterRules: rules}}
}

// wireFilter lowercases rule names since some servers answer with "Prefix".
func wireFilter(f *types.NotificationConfigurationFilter) *s3types.NotificationFilter {
	if f == nil || f.Key == nil {
		return nil
	}
	rules := make([]s3types.NotificationFilterRule, len(f.Key.FilterRules))
	for i, r := range f.Key.FilterRules {
		rules[i] = s3types.NotificationFilterRule{
			Name:  strings.ToLower(string(r.Name)),
			Value: aws.ToString(r.Value),
		}
	}
	return &s3types.NotificationFilter{Key: &s3types.NotificationFilterKey{FilterRules: rules}}
}
