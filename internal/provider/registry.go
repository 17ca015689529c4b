// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package provider

import (
	"context"
	"sort"
	"sync"
	"time"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/conduit-dev/conduit/pkg/health"
)

// DefaultFailureThreshold is the number of consecutive failures after
// which a provider is disabled.
const DefaultFailureThreshold = 3

// State is the lifecycle state of a provider record.
type State string

const (
	StateAvailable State = "available"
	StateDisabled  State = "disabled"
)

// record holds the mutable runtime state of one provider. Priority is
// fixed at startup; everything else is mutated only inside the Locker's
// exclusive section. Records are never destroyed while the process runs:
// a disabled provider stays in the registry, eligible for re-enable.
type record struct {
	id                  string
	priority            int
	state               State
	consecutiveFailures int
	lastHealthCheck     time.Time
}

// Registry holds the ordered provider list and per-provider runtime
// state. All read-modify-write sequences go through the Locker; the
// internal RWMutex only keeps concurrent snapshot reads memory-safe.
type Registry struct {
	mu        sync.RWMutex
	locker    *Locker
	threshold int
	providers map[string]Provider
	records   map[string]*record
	order     []string // ids sorted ascending by priority

	nowFunc func() time.Time // for testing
}

// NewRegistry builds a registry from providers in priority order: the
// first entry is tried first. Returns an error when no providers are
// configured, on duplicate ids, or on an invalid threshold.
func NewRegistry(locker *Locker, threshold int, ordered []Provider) (*Registry, error) {
	if locker == nil {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue, "registry requires a locker")
	}
	if threshold <= 0 {
		return nil, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"failure threshold must be positive, got %d", threshold)
	}
	if len(ordered) == 0 {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue, "at least one provider must be configured")
	}

	r := &Registry{
		locker:    locker,
		threshold: threshold,
		providers: make(map[string]Provider, len(ordered)),
		records:   make(map[string]*record, len(ordered)),
		order:     make([]string, 0, len(ordered)),
		nowFunc:   time.Now,
	}

	for i, p := range ordered {
		id := p.Name()
		if _, dup := r.providers[id]; dup {
			return nil, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
				"duplicate provider id %q", id)
		}
		r.providers[id] = p
		r.records[id] = &record{
			id:       id,
			priority: i + 1,
			state:    StateAvailable,
		}
		r.order = append(r.order, id)
	}

	return r, nil
}

// SetNowFunc overrides the time source (for testing).
func (r *Registry) SetNowFunc(fn func() time.Time) {
	r.mu.Lock()
	r.nowFunc = fn
	r.mu.Unlock()
}

// Provider returns the adapter for id. Unknown ids are a configuration
// error, never retried.
func (r *Registry) Provider(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, conduiterr.New(conduiterr.CodeProviderNotFound,
			"provider not found: "+id, conduiterr.FieldProvider(id))
	}
	return p, nil
}

// Candidates returns the providers eligible to serve traffic, sorted
// ascending by priority, plus the ids of disabled providers bypassed by
// the selection (also in priority order) so callers can surface them in
// the attempt trail. Both lists are recomputed from current state inside
// the exclusive section so failover decisions never act on a stale view.
func (r *Registry) Candidates(ctx context.Context) ([]Provider, []string, error) {
	var eligible []Provider
	var skipped []string
	err := r.locker.WithExclusive(ctx, func() error {
		eligible, skipped = r.candidates()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return eligible, skipped, nil
}

// candidates recomputes the eligible and bypassed lists. Caller must
// hold the exclusive section.
func (r *Registry) candidates() ([]Provider, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eligible := make([]Provider, 0, len(r.order))
	var skipped []string
	for _, id := range r.order {
		if r.records[id].state == StateAvailable {
			eligible = append(eligible, r.providers[id])
		} else {
			skipped = append(skipped, id)
		}
	}
	return eligible, skipped
}

// RecordOutcome updates a single provider record inside the exclusive
// section. On success the failure streak resets and a disabled provider
// is re-enabled; re-enabling an already-available provider is a no-op.
// On failure the streak grows; reaching the threshold disables the
// provider exactly once per streak and stamps the health-check time.
func (r *Registry) RecordOutcome(ctx context.Context, id string, success bool) error {
	return r.locker.WithExclusive(ctx, func() error {
		return r.applyOutcome(id, success)
	})
}

// RecordProbe applies a health-probe result. A healthy probe follows the
// same recovery path as a successful service call; an unhealthy probe
// only stamps the probe time so cool-down gating advances, without
// counting as a service failure.
func (r *Registry) RecordProbe(ctx context.Context, id string, healthy bool) error {
	return r.locker.WithExclusive(ctx, func() error {
		if healthy {
			return r.applyOutcome(id, true)
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		rec, ok := r.records[id]
		if !ok {
			return conduiterr.New(conduiterr.CodeProviderNotFound,
				"provider not found: "+id, conduiterr.FieldProvider(id))
		}
		rec.lastHealthCheck = r.nowFunc()
		return nil
	})
}

// applyOutcome mutates one record. Caller must hold the exclusive section.
func (r *Registry) applyOutcome(id string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return conduiterr.New(conduiterr.CodeProviderNotFound,
			"provider not found: "+id, conduiterr.FieldProvider(id))
	}

	if success {
		rec.consecutiveFailures = 0
		rec.state = StateAvailable
		return nil
	}

	// Failures only accumulate while the provider is available, so the
	// disabled transition fires exactly once per streak.
	if rec.state == StateDisabled {
		return nil
	}

	rec.consecutiveFailures++
	if rec.consecutiveFailures >= r.threshold {
		rec.state = StateDisabled
		rec.lastHealthCheck = r.nowFunc()
	}
	return nil
}

// Snapshot returns a consistent read-only view of all provider records,
// sorted ascending by priority. It does not enter the exclusive section:
// the view is eventually consistent with in-flight mutations, which is
// acceptable for dashboards but never used for failover decisions.
func (r *Registry) Snapshot() []health.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]health.Status, 0, len(r.records))
	for _, rec := range r.records {
		s := health.Status{
			Provider:            rec.id,
			Priority:            rec.priority,
			Available:           rec.state == StateAvailable,
			ConsecutiveFailures: rec.consecutiveFailures,
		}
		if !rec.lastHealthCheck.IsZero() {
			t := rec.lastHealthCheck
			s.LastHealthCheck = &t
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// IDs returns all provider ids in priority order, regardless of state.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Threshold returns the configured consecutive-failure threshold.
func (r *Registry) Threshold() int {
	return r.threshold
}

// Close shuts down all registered providers.
func (r *Registry) Close() error {
	var errs []error
	for _, id := range r.order {
		if err := r.providers[id].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return conduiterr.Join(errs...)
	}
	return nil
}
