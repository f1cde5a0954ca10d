// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"github.com/LeeDigitalWorks/zapnotify/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PollCyclesTotal counts listen requests issued
	PollCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapnotify",
		Subsystem: "poller",
		Name:      "cycles_total",
		Help:      "Total number of listen requests issued",
	}, []string{"bucket"})

	// RecordsReceivedTotal tracks records delivered to callbacks by event name
	RecordsReceivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapnotify",
		Subsystem: "poller",
		Name:      "records_total",
		Help:      "Total number of notification records received",
	}, []string{"event_name"}) // event_name: "s3:ObjectCreated:Put", etc.

	// PollErrorsTotal tracks poller errors
	PollErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapnotify",
		Subsystem: "poller",
		Name:      "errors_total",
		Help:      "Total number of poller errors",
	}, []string{"error_type"}) // error_type: "transport", "decode", "stream"

	// EventsDeliveredTotal tracks records delivered by publisher type
	EventsDeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapnotify",
		Subsystem: "events",
		Name:      "delivered_total",
		Help:      "Total number of records delivered to publishers",
	}, []string{"publisher"}) // publisher: "redis", "kafka"

	// EventsDeliveryErrorsTotal tracks delivery errors by publisher
	EventsDeliveryErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapnotify",
		Subsystem: "events",
		Name:      "delivery_errors_total",
		Help:      "Total number of record delivery errors",
	}, []string{"publisher"})

	// EventsDeliveryDuration tracks delivery latency by publisher
	EventsDeliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zapnotify",
		Subsystem: "events",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent delivering records to publishers",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"publisher"})

	// EventsDroppedTotal tracks records dropped by the forwarder throttle
	EventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zapnotify",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Total number of records dropped before delivery",
	})
)

func init() {
	debug.Registry().MustRegister(
		PollCyclesTotal,
		RecordsReceivedTotal,
		PollErrorsTotal,
		EventsDeliveredTotal,
		EventsDeliveryErrorsTotal,
		EventsDeliveryDuration,
		EventsDroppedTotal,
	)
}
