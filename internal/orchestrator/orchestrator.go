// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-dev/conduit/internal/metrics"
	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/conduit-dev/conduit/pkg/health"
)

// DefaultRequestTimeout bounds one whole prediction request, including
// every failover attempt.
const DefaultRequestTimeout = 60 * time.Second

// Config holds orchestrator dependencies and timeouts.
type Config struct {
	Registry       *provider.Registry
	CallTimeout    time.Duration // per adapter call, defaults to DefaultCallTimeout
	RequestTimeout time.Duration // whole request, defaults to DefaultRequestTimeout
	Metrics        *metrics.Metrics
}

// Orchestrator is the public entry point: it coordinates the registry,
// lock manager, and failover controller per request. It exclusively owns
// the registry; no other component mutates provider records.
type Orchestrator struct {
	registry       *provider.Registry
	controller     *Controller
	requestTimeout time.Duration
	metrics        *metrics.Metrics
}

// New creates an Orchestrator from cfg.
func New(cfg Config) (*Orchestrator, error) {
	controller, err := NewController(cfg.Registry, cfg.CallTimeout, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return &Orchestrator{
		registry:       cfg.Registry,
		controller:     controller,
		requestTimeout: requestTimeout,
		metrics:        cfg.Metrics,
	}, nil
}

// GetPrediction serves one canonical request. A malformed request fails
// immediately with CodeProviderRequestInvalid: nothing is attempted and
// no failure is recorded against any provider. Otherwise the failover
// controller walks the candidates under the overall request timeout, and
// the caller receives either a canonical response or a single terminal
// error carrying the per-provider failure trail.
func (o *Orchestrator) GetPrediction(ctx context.Context, req provider.Request) (*provider.Response, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		o.metrics.ObserveRequest("invalid", time.Since(start))
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.requestTimeout)
	defer cancel()

	requestID := uuid.NewString()
	resp, attempts, err := o.controller.Execute(ctx, req)

	for _, a := range attempts {
		slog.Info("provider attempt",
			"request_id", requestID,
			"provider", a.Provider,
			"outcome", a.Outcome,
			"reason", a.Reason,
			"duration", a.Duration,
		)
	}
	o.publishProviderState()

	if err != nil {
		status := "error"
		if conduiterr.IsExhausted(err) {
			status = "exhausted"
		}
		o.metrics.ObserveRequest(status, time.Since(start))
		return nil, conduiterr.With(err, conduiterr.FieldRequestID(requestID))
	}

	resp.RequestID = requestID
	resp.Attempts = attempts
	o.metrics.ObserveRequest("success", time.Since(start))
	return resp, nil
}

// ProviderStatus returns a read-only snapshot of all provider records for
// dashboards. It is eventually consistent with in-flight mutations and is
// never used for failover decisions.
func (o *Orchestrator) ProviderStatus() []health.Status {
	return o.registry.Snapshot()
}

// HealthCheckAll probes every provider regardless of state and returns a
// per-provider health map. A successful probe of a disabled provider
// re-enables it through the same recovery path as a successful service
// call; beyond that, probing does not change failover eligibility.
func (o *Orchestrator) HealthCheckAll(ctx context.Context) map[string]bool {
	out := make(map[string]bool)

	for _, id := range o.registry.IDs() {
		p, err := o.registry.Provider(id)
		if err != nil {
			continue
		}

		healthy := p.HealthCheck(ctx) == nil
		out[id] = healthy
		o.metrics.ObserveProbe(id, healthy)

		if err := o.registry.RecordProbe(ctx, id, healthy); err != nil {
			slog.Warn("recording health probe failed", "provider", id, "error", err)
		}
	}

	o.publishProviderState()
	return out
}

// Registry exposes the owned registry for wiring the background prober.
func (o *Orchestrator) Registry() *provider.Registry {
	return o.registry
}

// Close shuts down all providers.
func (o *Orchestrator) Close() error {
	return o.registry.Close()
}

func (o *Orchestrator) publishProviderState() {
	for _, s := range o.registry.Snapshot() {
		o.metrics.SetProviderState(s.Provider, s.Available, s.ConsecutiveFailures)
	}
}
