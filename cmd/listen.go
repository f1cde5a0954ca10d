// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/debug"
	"github.com/LeeDigitalWorks/zapnotify/pkg/events"
	"github.com/LeeDigitalWorks/zapnotify/pkg/events/publisher"
	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listenCmd = &cobra.Command{
	Use:   "listen [BUCKET]",
	Short: "Listen for bucket notifications",
	Long: `Listen long-polls the bucket notification endpoint and prints every
received record. Records can also be forwarded to Redis Pub/Sub and Kafka.
The bucket may be given as an argument or as listen.bucket in the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	defaults := events.DefaultConfig()

	f := listenCmd.Flags()
	f.String("prefix", "", "Only report keys starting with this prefix")
	f.String("suffix", "", "Only report keys ending with this suffix")
	f.StringSlice("events", nil, "Event names to listen for (default all)")
	f.Bool("json", false, "Print records as JSON lines")
	f.Bool("quiet", false, "Do not print records")
	f.String("debug_addr", "", "Serve metrics, health and pprof on this address")
	f.Duration("shutdown_timeout", 10*time.Second, "Time to wait for the poller to stop after a signal")

	f.Bool("redis.enabled", defaults.Redis.Enabled, "Forward records to Redis Pub/Sub")
	f.String("redis.addr", defaults.Redis.Addr, "Redis server address")
	f.String("redis.password", "", "Redis password")
	f.Int("redis.db", defaults.Redis.DB, "Redis database number")
	f.String("redis.channel", defaults.Redis.Channel, "Redis channel prefix")
	f.Int("redis.pool_size", defaults.Redis.PoolSize, "Redis connection pool size")

	f.Bool("kafka.enabled", defaults.Kafka.Enabled, "Forward records to Kafka")
	f.StringSlice("kafka.brokers", nil, "Kafka broker addresses")
	f.String("kafka.topic", defaults.Kafka.Topic, "Kafka topic")
	f.Int("kafka.required_acks", defaults.Kafka.RequiredAcks, "Kafka acks: 0=none, 1=leader, -1=all")
	f.String("kafka.compression", defaults.Kafka.Compression, "Kafka compression codec")
	f.Int("kafka.batch_size", defaults.Kafka.BatchSize, "Kafka batch size")
	f.Duration("kafka.batch_timeout", defaults.Kafka.BatchTimeout, "Kafka batch timeout")
	f.String("kafka.sasl_mechanism", "", "Kafka SASL mechanism (SCRAM-SHA-256, SCRAM-SHA-512)")
	f.String("kafka.username", "", "Kafka SASL username")
	f.String("kafka.password", "", "Kafka SASL password")

	f.Float64("forward.rate_per_second", 0, "Maximum records forwarded per second (0 is unlimited)")
	f.Int("forward.burst", defaults.Forward.Burst, "Forwarding burst size")
	f.Duration("forward.timeout", defaults.Forward.Timeout, "Per-record publish timeout")
	f.StringSlice("forward.events", nil, "Event patterns to forward, e.g. s3:ObjectRemoved:* (default all received)")

	viper.BindPFlags(f)
}

// loadEventsConfig merges config file, env and flags into an events.Config.
// A bucket argument overrides listen.bucket.
func loadEventsConfig(cmd *cobra.Command, args []string) (events.Config, error) {
	cfg := events.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	f := NewFlagLoader(cmd)
	if len(args) > 0 {
		cfg.Listen.Bucket = args[0]
	}
	if v := f.String("prefix"); v != "" {
		cfg.Listen.Prefix = v
	}
	if v := f.String("suffix"); v != "" {
		cfg.Listen.Suffix = v
	}
	if v := f.StringSlice("events"); len(v) > 0 {
		cfg.Listen.Events = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadEventsConfig(cmd, args)
	if err != nil {
		return err
	}
	f := NewFlagLoader(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := newClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	printer := newRecordPrinter(out, f.Bool("json"))
	var received int64
	var lastErr error

	opts := []events.Option{
		events.WithPrefix(cfg.Listen.Prefix),
		events.WithSuffix(cfg.Listen.Suffix),
		events.WithEvents(cfg.Listen.EventTypes()),
		events.OnNotification(func(r events.Record) {
			received++
		}),
		events.OnError(func(err error) {
			lastErr = err
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}),
	}
	if !f.Bool("quiet") {
		opts = append(opts, events.OnNotification(printer.Print))
	}

	if cfg.HasPublishers() {
		pubs, err := publisher.FromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		fwd := publisher.NewForwarder(pubs, cfg.Forward, cfg.Forward.EventTypes())
		defer func() {
			if err := fwd.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close publishers")
			}
		}()
		opts = append(opts, events.OnNotification(fwd.Handler()))
	}

	poller, err := client.ListenBucketNotification(cfg.Listen.Bucket, opts...)
	if err != nil {
		return err
	}

	var debugServer *debug.Server
	if addr := f.String("debug_addr"); addr != "" {
		debug.SetReadyCheck(func() bool {
			return poller.State() != events.StateIdle
		})
		if debugServer, err = debug.Listen(addr); err != nil {
			poller.Stop()
			return err
		}
		debug.SetReady()
	}

	logger.Info().
		Str("bucket", poller.Bucket()).
		Str("query", poller.Query()).
		Bool("forwarding", cfg.HasPublishers()).
		Msg("Listening for bucket notifications")

	halted := make(chan struct{})
	go func() {
		poller.Wait()
		close(halted)
	}()

	signaled := waitForShutdown(halted)
	debug.SetNotReady()
	if debugServer != nil {
		defer debugServer.Shutdown(context.Background())
	}

	if signaled {
		logger.Info().Msg("Stopping poller")
		poller.Stop()
		select {
		case <-halted:
		case <-time.After(f.Duration("shutdown_timeout")):
			logger.Warn().Msg("poller did not stop before shutdown timeout")
			return nil
		}
	}

	logger.Info().
		Str("received", humanize.Comma(received)).
		Msg("Poller stopped")

	if !signaled {
		return lastErr
	}
	return nil
}

// waitForShutdown blocks until a termination signal arrives or done is
// closed. It reports whether a signal was received.
func waitForShutdown(done <-chan struct{}) bool {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer signal.Stop(stopChan)

	select {
	case <-stopChan:
		return true
	case <-done:
		return false
	}
}

type recordPrinter struct {
	w      io.Writer
	asJSON bool
	enc    *json.Encoder
}

func newRecordPrinter(w io.Writer, asJSON bool) *recordPrinter {
	return &recordPrinter{w: w, asJSON: asJSON, enc: json.NewEncoder(w)}
}

// Print writes one record per line.
func (p *recordPrinter) Print(r events.Record) {
	if p.asJSON {
		if err := p.enc.Encode(r); err != nil {
			logger.Warn().Err(err).Msg("failed to encode record")
		}
		return
	}
	fmt.Fprintln(p.w, formatRecord(r))
}

// formatRecord renders r as "TIME EVENT BUCKET/KEY (SIZE)".
func formatRecord(r events.Record) string {
	var b strings.Builder
	if !r.EventTime.IsZero() {
		b.WriteString(r.EventTime.UTC().Format(time.RFC3339))
		b.WriteByte(' ')
	}
	b.WriteString(r.EventName)
	b.WriteByte(' ')
	b.WriteString(r.S3.Bucket.Name)
	b.WriteByte('/')
	b.WriteString(r.ObjectKey())
	if r.S3.Object.Size > 0 {
		fmt.Fprintf(&b, " (%s)", humanize.Bytes(uint64(r.S3.Object.Size)))
	}
	return b.String()
}
