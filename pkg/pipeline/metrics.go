// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the channel's Prometheus counters. All recording methods
// are nil-safe so a channel without metrics costs nothing.
type Metrics struct {
	EventsTotal     *prometheus.CounterVec
	EventFailures   *prometheus.CounterVec
	ReconnectsTotal prometheus.Counter
}

// NewMetrics creates and registers the channel metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vrcpipe_events_total",
				Help: "Total number of pipeline events received by type",
			},
			[]string{"type"},
		),
		EventFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vrcpipe_event_failures_total",
				Help: "Total number of pipeline events that failed handling, by type",
			},
			[]string{"type"},
		),
		ReconnectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vrcpipe_reconnects_total",
				Help: "Total number of automatic reconnect attempts",
			},
		),
	}

	reg.MustRegister(m.EventsTotal)
	reg.MustRegister(m.EventFailures)
	reg.MustRegister(m.ReconnectsTotal)
	return m
}

func (m *Metrics) event(eventType string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) failure(eventType string) {
	if m == nil {
		return
	}
	m.EventFailures.WithLabelValues(eventType).Inc()
}

func (m *Metrics) reconnect() {
	if m == nil {
		return
	}
	m.ReconnectsTotal.Inc()
}
