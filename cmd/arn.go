// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"

	"github.com/spf13/cobra"
)

var arnCmd = &cobra.Command{
	Use:   "arn PARTITION SERVICE REGION ACCOUNT RESOURCE",
	Short: "Print a notification target ARN",
	Example: `  zapnotify arn minio sqs "" 1 webhook
  zapnotify arn aws sns us-east-1 123456789012 uploads`,
	Args: cobra.ExactArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), notification.BuildARN(args[0], args[1], args[2], args[3], args[4]))
	},
}

func init() {
	rootCmd.AddCommand(arnCmd)
}
