// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"
	"github.com/LeeDigitalWorks/zapnotify/pkg/utils"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "zapnotify",
	Short: "zapnotify - bucket event notifications for S3-compatible storage",
	Long: `zapnotify manages bucket notification configurations on an S3-compatible
server and listens for bucket events, printing them or forwarding them to
Redis and Kafka.`,
	SilenceUsage:     true,
	PersistentPreRun: initializeConfig,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
	pf.String("endpoint", "http://localhost:8082", "S3 endpoint URL")
	pf.String("region", "", "Signing region (default us-east-1)")
	pf.String("access_key", "", "Access key ID (anonymous when empty)")
	pf.String("secret_key", "", "Secret access key")
	pf.String("session_token", "", "Session token for temporary credentials")
	pf.Duration("timeout", 30*time.Second, "Timeout for configuration requests")
	pf.String("log_level", "info", "Log level (trace, debug, info, warn, error)")

	viper.BindPFlags(pf)
}

// initializeConfig loads zapnotify.{yaml,toml,json} and applies the log level.
func initializeConfig(cmd *cobra.Command, args []string) {
	utils.LoadConfiguration("zapnotify", false)

	// LOG_LEVEL applies unless the level is given by flag, config or ZAPNOTIFY_LOG_LEVEL.
	if !cmd.Flags().Changed("log_level") && !viper.IsSet("log_level") {
		return
	}
	if level, err := zerolog.ParseLevel(NewFlagLoader(cmd).String("log_level")); err == nil && level != zerolog.NoLevel {
		logger.SetLevel(level)
	}
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
