// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/conduit-dev/conduit/internal/metrics"
	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

const (
	// DefaultProbeInterval is how often the prober scans for disabled
	// providers eligible for a recovery probe.
	DefaultProbeInterval = 15 * time.Second

	// DefaultProbeCooldown is the interval after disabling a provider
	// before it becomes eligible for a recovery probe, and between
	// consecutive failed probes.
	DefaultProbeCooldown = 30 * time.Second

	// probeTimeout bounds one health-check call.
	probeTimeout = 10 * time.Second
)

// Prober periodically probes disabled providers and re-enables the ones
// whose health check passes. Available providers are left alone: recovery
// probing is only about bringing disabled providers back.
type Prober struct {
	registry *provider.Registry
	interval time.Duration
	cooldown time.Duration
	metrics  *metrics.Metrics

	nowFunc  func() time.Time // for testing
	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewProber creates a Prober. Non-positive interval or cooldown fall back
// to the defaults.
func NewProber(registry *provider.Registry, interval, cooldown time.Duration, m *metrics.Metrics) (*Prober, error) {
	if registry == nil {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue, "prober requires a registry")
	}
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if cooldown <= 0 {
		cooldown = DefaultProbeCooldown
	}
	return &Prober{
		registry: registry,
		interval: interval,
		cooldown: cooldown,
		metrics:  m,
		nowFunc:  time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start launches the probe loop. It returns immediately; the loop runs
// until ctx is cancelled or Stop is called. Repeated Start calls are
// no-ops.
func (p *Prober) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go p.loop(ctx)
}

// Stop terminates the probe loop and waits for it to exit. It is safe to
// call more than once, and before Start.
func (p *Prober) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.started.Load() {
		<-p.doneCh
	}
}

func (p *Prober) loop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.ProbeDisabled(ctx)
		}
	}
}

// ProbeDisabled runs one probe pass: every disabled provider past its
// cool-down gets a health check, and a passing check re-enables it.
func (p *Prober) ProbeDisabled(ctx context.Context) {
	now := p.nowFunc()

	for _, s := range p.registry.Snapshot() {
		if s.Available {
			continue
		}
		if s.LastHealthCheck != nil && now.Sub(*s.LastHealthCheck) < p.cooldown {
			continue
		}

		prov, err := p.registry.Provider(s.Provider)
		if err != nil {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		healthy := prov.HealthCheck(probeCtx) == nil
		cancel()

		p.metrics.ObserveProbe(s.Provider, healthy)
		if err := p.registry.RecordProbe(ctx, s.Provider, healthy); err != nil {
			slog.Warn("recording recovery probe failed", "provider", s.Provider, "error", err)
			continue
		}

		if healthy {
			slog.Info("provider recovered", "provider", s.Provider)
		}
	}
}

// SetNowFunc overrides the time source (for testing).
func (p *Prober) SetNowFunc(fn func() time.Time) {
	p.nowFunc = fn
}
