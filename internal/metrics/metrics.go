// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all gateway metrics.
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Failover metrics
	AttemptsTotal     *prometheus.CounterVec
	FailoversTotal    prometheus.Counter
	LockTimeoutsTotal prometheus.Counter

	// Provider state
	ProviderAvailable *prometheus.GaugeVec
	ProviderFailures  *prometheus.GaugeVec
	HealthProbesTotal *prometheus.CounterVec
}

// New creates a Metrics instance with all collectors registered on reg.
// A nil registerer falls back to the default prometheus registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "conduit"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "requests_total",
				Help:      "Total number of prediction requests",
			},
			[]string{"status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "request_duration_seconds",
				Help:      "End-to-end prediction request duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "failover",
				Name:      "attempts_total",
				Help:      "Provider attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),
		FailoversTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "failover",
				Name:      "failovers_total",
				Help:      "Requests that were served by a provider other than the first candidate",
			},
		),
		LockTimeoutsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "failover",
				Name:      "lock_timeouts_total",
				Help:      "Registry lock acquisition timeouts",
			},
		),
		ProviderAvailable: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "available",
				Help:      "Whether the provider is eligible to serve traffic (1) or disabled (0)",
			},
			[]string{"provider"},
		),
		ProviderFailures: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "consecutive_failures",
				Help:      "Current consecutive failure streak per provider",
			},
			[]string{"provider"},
		),
		HealthProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "health_probes_total",
				Help:      "Health probes by result",
			},
			[]string{"provider", "result"},
		),
	}
}

// ObserveRequest records one finished prediction request.
func (m *Metrics) ObserveRequest(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(status).Inc()
	m.RequestDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// ObserveAttempt records one provider attempt.
func (m *Metrics) ObserveAttempt(providerID, outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(providerID, outcome).Inc()
}

// ObserveFailover records a request served by a non-primary provider.
func (m *Metrics) ObserveFailover() {
	if m == nil {
		return
	}
	m.FailoversTotal.Inc()
}

// ObserveLockTimeout records a registry lock acquisition timeout.
func (m *Metrics) ObserveLockTimeout() {
	if m == nil {
		return
	}
	m.LockTimeoutsTotal.Inc()
}

// SetProviderState publishes the current registry view of one provider.
func (m *Metrics) SetProviderState(providerID string, available bool, consecutiveFailures int) {
	if m == nil {
		return
	}
	v := 0.0
	if available {
		v = 1.0
	}
	m.ProviderAvailable.WithLabelValues(providerID).Set(v)
	m.ProviderFailures.WithLabelValues(providerID).Set(float64(consecutiveFailures))
}

// ObserveProbe records one health probe result.
func (m *Metrics) ObserveProbe(providerID string, healthy bool) {
	if m == nil {
		return
	}
	result := "unhealthy"
	if healthy {
		result = "healthy"
	}
	m.HealthProbesTotal.WithLabelValues(providerID, result).Inc()
}
