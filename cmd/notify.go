// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"
	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Manage bucket notification configuration",
}

var notifySetCmd = &cobra.Command{
	Use:   "set BUCKET",
	Short: "Set the notification configuration of a bucket",
	Long: `Set builds one target per --topic, --queue and --function ARN, each with
the given events and key filter, and replaces the bucket configuration.
With --append the targets are added to the existing configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runNotifySet,
}

var notifyGetCmd = &cobra.Command{
	Use:   "get BUCKET",
	Short: "Print the notification configuration of a bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotifyGet,
}

var notifyClearCmd = &cobra.Command{
	Use:   "clear BUCKET",
	Short: "Remove every notification target from a bucket",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotifyClear,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifySetCmd, notifyGetCmd, notifyClearCmd)

	f := notifySetCmd.Flags()
	f.StringArray("topic", nil, "Topic ARN (repeatable)")
	f.StringArray("queue", nil, "Queue ARN (repeatable)")
	f.StringArray("function", nil, "Cloud function ARN (repeatable)")
	f.StringSlice("events", []string{string(notification.ObjectCreatedAll)}, "Event names delivered to the targets")
	f.String("prefix", "", "Key prefix filter")
	f.String("suffix", "", "Key suffix filter")
	f.String("id", "", "Configuration id (generated when empty, single target only)")
	f.Bool("append", false, "Add to the existing configuration instead of replacing it")

	notifyGetCmd.Flags().Bool("xml", false, "Print the configuration document as XML")
}

// ErrNoTargets is returned when notify set is given no target ARN.
var ErrNoTargets = errors.New("at least one --topic, --queue or --function is required")

// targetSpec describes the targets requested on the command line.
type targetSpec struct {
	Topics    []string
	Queues    []string
	Functions []string
	Events    []string
	Prefix    string
	Suffix    string
	ID        string
}

func loadTargetSpec(cmd *cobra.Command) targetSpec {
	f := cmd.Flags()
	var s targetSpec
	s.Topics, _ = f.GetStringArray("topic")
	s.Queues, _ = f.GetStringArray("queue")
	s.Functions, _ = f.GetStringArray("function")
	s.Events, _ = f.GetStringSlice("events")
	s.Prefix, _ = f.GetString("prefix")
	s.Suffix, _ = f.GetString("suffix")
	s.ID, _ = f.GetString("id")
	return s
}

// targets validates every ARN and builds one Target per ARN.
func (s targetSpec) targets() ([]*notification.Target, error) {
	total := len(s.Topics) + len(s.Queues) + len(s.Functions)
	if total == 0 {
		return nil, ErrNoTargets
	}
	if s.ID != "" && total > 1 {
		return nil, fmt.Errorf("--id %q given for %d targets", s.ID, total)
	}

	eventTypes := notification.ParseEventTypes(s.Events)
	for _, e := range eventTypes {
		if !e.Known() {
			logger.Warn().Str("event", e.String()).Msg("unrecognized event name")
		}
	}

	groups := []struct {
		arns      []string
		newTarget func(string) *notification.Target
	}{
		{s.Topics, notification.NewTopicConfig},
		{s.Queues, notification.NewQueueConfig},
		{s.Functions, notification.NewCloudFunctionConfig},
	}

	out := make([]*notification.Target, 0, total)
	for _, g := range groups {
		for _, raw := range g.arns {
			arn, err := notification.ParseARN(raw)
			if err != nil {
				return nil, err
			}
			t := g.newTarget(arn.String())
			id := s.ID
			if id == "" {
				id = uuid.NewString()
			}
			t.SetID(id)
			for _, e := range eventTypes {
				t.AddEvent(e)
			}
			if s.Prefix != "" {
				t.AddFilterPrefix(s.Prefix)
			}
			if s.Suffix != "" {
				t.AddFilterSuffix(s.Suffix)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// buildConfig adds the requested targets to a copy of base, or to an empty
// configuration when base is nil.
func buildConfig(base *notification.Config, s targetSpec) (*notification.Config, error) {
	targets, err := s.targets()
	if err != nil {
		return nil, err
	}

	cfg := &notification.Config{}
	if base != nil {
		cfg = notification.FromWire(base.Wire())
	}
	for _, t := range targets {
		if err := cfg.Add(t); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runNotifySet(cmd *cobra.Command, args []string) error {
	bucket := args[0]
	ctx := cmd.Context()
	client, err := newClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	var base *notification.Config
	if appendMode, _ := cmd.Flags().GetBool("append"); appendMode {
		if base, err = client.GetBucketNotification(ctx, bucket); err != nil {
			return err
		}
	}

	cfg, err := buildConfig(base, loadTargetSpec(cmd))
	if err != nil {
		return err
	}
	if err := client.SetBucketNotification(ctx, bucket, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d notification target(s) configured\n", bucket, cfg.Len())
	return nil
}

func runNotifyGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	cfg, err := client.GetBucketNotification(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asXML, _ := cmd.Flags().GetBool("xml"); asXML {
		data, err := xml.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("encode notification configuration: %w", err)
		}
		fmt.Fprintf(out, "%s%s\n", xml.Header, data)
		return nil
	}
	return describeConfig(out, cfg)
}

func runNotifyClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.RemoveAllBucketNotification(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: notification configuration cleared\n", args[0])
	return nil
}

// describeConfig prints one row per target in wire order.
func describeConfig(w io.Writer, cfg *notification.Config) error {
	if cfg.Len() == 0 {
		_, err := fmt.Fprintln(w, "no notification targets")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tARN\tEVENTS\tFILTER")
	for _, group := range [][]*notification.Target{cfg.Topics(), cfg.Queues(), cfg.CloudFunctions()} {
		for _, t := range group {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Kind(), t.ID, t.ARN(), joinEvents(t.Events), describeFilter(t.Filter))
		}
	}
	return tw.Flush()
}

func joinEvents(in []notification.EventType) string {
	if len(in) == 0 {
		return "-"
	}
	names := make([]string, len(in))
	for i, e := range in {
		names[i] = e.String()
	}
	return strings.Join(names, ",")
}

func describeFilter(f *notification.EventFilter) string {
	if f == nil || len(f.Rules) == 0 {
		return "-"
	}
	rules := make([]string, len(f.Rules))
	for i, r := range f.Rules {
		rules[i] = r.Name + "=" + r.Value
	}
	return strings.Join(rules, ",")
}
