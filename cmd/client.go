// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	"github.com/LeeDigitalWorks/zapnotify/pkg/s3client"

	"github.com/spf13/cobra"
)

func loadClientConfig(cmd *cobra.Command) s3client.Config {
	f := NewFlagLoader(cmd)
	return s3client.Config{
		Endpoint:        f.String("endpoint"),
		Region:          f.String("region"),
		AccessKeyID:     f.String("access_key"),
		SecretAccessKey: f.String("secret_key"),
		SessionToken:    f.String("session_token"),
		Timeout:         f.Duration("timeout"),
	}
}

func newClient(ctx context.Context, cmd *cobra.Command) (*s3client.Client, error) {
	return s3client.New(ctx, loadClientConfig(cmd))
}
