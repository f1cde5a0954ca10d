// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/events"
	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"
	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned by Forward when the rate limit drops a record.
var ErrThrottled = errors.New("publisher: record dropped by rate limit")

// Forwarder re-encodes each record as a single-record S3 event document and
// hands it to every publisher.
type Forwarder struct {
	publishers []Publisher
	limiter    *rate.Limiter
	timeout    time.Duration
	events     []notification.EventType
	log        zerolog.Logger
}

// NewForwarder builds a Forwarder throttled per cfg. Records of an event not
// in only are skipped; an empty only forwards everything.
func NewForwarder(pubs []Publisher, cfg events.ForwardConfig, only []notification.EventType) *Forwarder {
	f := &Forwarder{
		publishers: pubs,
		timeout:    cfg.Timeout,
		events:     only,
		log:        logger.Component("forwarder"),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return f
}

func (f *Forwarder) wants(r events.Record) bool {
	if len(f.events) == 0 {
		return true
	}
	for _, e := range f.events {
		if r.Is(e) {
			return true
		}
	}
	return false
}

// Forward delivers r to all publishers and joins their errors.
func (f *Forwarder) Forward(ctx context.Context, r events.Record) error {
	if !f.wants(r) {
		return nil
	}
	if f.limiter != nil && !f.limiter.Allow() {
		events.EventsDroppedTotal.Inc()
		return ErrThrottled
	}

	data, err := json.Marshal(events.FlushUnit{Records: []events.Record{r}})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	bucket := r.S3.Bucket.Name
	var errs []error
	for _, pub := range f.publishers {
		start := time.Now()
		err := pub.Publish(ctx, bucket, data)
		events.EventsDeliveryDuration.WithLabelValues(pub.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			events.EventsDeliveryErrorsTotal.WithLabelValues(pub.Name()).Inc()
			f.log.Warn().
				Err(err).
				Str("publisher", pub.Name()).
				Str("bucket", bucket).
				Str("event", r.EventName).
				Msg("failed to publish record")
			errs = append(errs, err)
			continue
		}
		events.EventsDeliveredTotal.WithLabelValues(pub.Name()).Inc()
	}
	return errors.Join(errs...)
}

// Handler adapts Forward to a Poller notification callback. Errors are
// logged and counted only.
func (f *Forwarder) Handler() func(events.Record) {
	return func(r events.Record) {
		if err := f.Forward(context.Background(), r); errors.Is(err, ErrThrottled) {
			f.log.Debug().Str("event", r.EventName).Msg("record throttled")
		}
	}
}

// Close closes every publisher.
func (f *Forwarder) Close() error {
	return CloseAll(f.publishers)
}
