// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/conduit-dev/conduit/internal/metrics"
	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// DefaultCallTimeout bounds a single adapter call.
const DefaultCallTimeout = 30 * time.Second

// Controller decides, for one inference request, the ordered attempt
// sequence and stopping condition. It is at-most-one-success: the walk
// stops on the first successful adapter call and never issues speculative
// parallel calls.
type Controller struct {
	registry    *provider.Registry
	callTimeout time.Duration
	metrics     *metrics.Metrics
}

// NewController creates a Controller. A non-positive callTimeout falls
// back to DefaultCallTimeout. metrics may be nil.
func NewController(registry *provider.Registry, callTimeout time.Duration, m *metrics.Metrics) (*Controller, error) {
	if registry == nil {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue, "controller requires a registry")
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Controller{
		registry:    registry,
		callTimeout: callTimeout,
		metrics:     m,
	}, nil
}

// Execute walks the eligible candidates in priority order, calling each
// adapter at most once, and returns the first successful response along
// with the full attempt trail. Disabled providers bypassed by candidate
// selection open the trail as skipped entries; the selection happens
// before any call, so they precede the attempted providers. Failures are
// recorded against the failing provider; a lock timeout while recording
// counts as transient for that candidate and the walk continues. When
// every candidate has failed, or none were eligible to begin with, the
// request fails with CodeProviderAllExhausted — an empty "attempted"
// list distinguishes the no-candidates case from failures collected
// after real attempts.
func (c *Controller) Execute(ctx context.Context, req provider.Request) (*provider.Response, []provider.Attempt, error) {
	candidates, disabled, err := c.registry.Candidates(ctx)
	if err != nil {
		if conduiterr.IsLockTimeout(err) {
			c.metrics.ObserveLockTimeout()
		}
		return nil, nil, err
	}

	attempts := make([]provider.Attempt, 0, len(candidates)+len(disabled))
	for _, id := range disabled {
		attempts = append(attempts, provider.Attempt{
			Provider: id,
			Outcome:  provider.OutcomeSkipped,
			Reason:   "provider disabled",
		})
		c.metrics.ObserveAttempt(id, string(provider.OutcomeSkipped))
	}

	if len(candidates) == 0 {
		return nil, attempts, conduiterr.New(conduiterr.CodeProviderAllExhausted,
			"no providers available: every candidate is disabled")
	}

	primary := candidates[0].Name()

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			// Deliberate cancellation or the overall deadline: abandon the
			// walk, no further candidates are attempted.
			return nil, attempts, conduiterr.Wrap(err, conduiterr.CodeProviderAllExhausted,
				"request cancelled during failover",
				conduiterr.Field("attempted", attemptedIDs(attempts)))
		}

		id := cand.Name()
		start := time.Now()
		resp, callErr := c.completeOnce(ctx, cand, req)
		elapsed := time.Since(start)

		if callErr == nil {
			if recErr := c.recordOutcome(ctx, id, true); recErr != nil {
				return nil, attempts, recErr
			}
			attempts = append(attempts, provider.Attempt{
				Provider: id,
				Outcome:  provider.OutcomeSuccess,
				Duration: elapsed,
			})
			c.metrics.ObserveAttempt(id, string(provider.OutcomeSuccess))
			if id != primary {
				c.metrics.ObserveFailover()
			}
			return resp, attempts, nil
		}

		if ctx.Err() != nil {
			// The call failed because the caller gave up, not because the
			// provider faulted: nothing is recorded against its streak.
			return nil, attempts, conduiterr.Wrap(ctx.Err(), conduiterr.CodeProviderAllExhausted,
				"request cancelled during failover",
				conduiterr.Field("attempted", attemptedIDs(attempts)))
		}

		if recErr := c.recordOutcome(ctx, id, false); recErr != nil {
			return nil, attempts, recErr
		}
		attempts = append(attempts, provider.Attempt{
			Provider: id,
			Outcome:  provider.OutcomeFailure,
			Reason:   callErr.Error(),
			Duration: elapsed,
		})
		c.metrics.ObserveAttempt(id, string(provider.OutcomeFailure))
	}

	return nil, attempts, conduiterr.New(conduiterr.CodeProviderAllExhausted,
		"all providers exhausted",
		conduiterr.Field("attempted", attemptedIDs(attempts)),
		conduiterr.Field("failures", failureTrail(attempts)))
}

// completeOnce performs a single bounded adapter call. Adapter-reported
// unavailability counts as a failure without a network call.
func (c *Controller) completeOnce(ctx context.Context, p provider.Provider, req provider.Request) (*provider.Response, error) {
	if !p.Available(ctx) {
		return nil, conduiterr.New(conduiterr.CodeProviderUpstreamFailure,
			p.Name()+": adapter reports unavailable", conduiterr.FieldProvider(p.Name()))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := p.Complete(callCtx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Text == "" {
		return nil, conduiterr.New(conduiterr.CodeProviderResponseInvalid,
			p.Name()+": empty canonical response", conduiterr.FieldProvider(p.Name()))
	}
	return resp, nil
}

// recordOutcome writes the outcome through the lock manager. A lock
// timeout is swallowed as transient for the current candidate; an unknown
// provider id is a configuration error and aborts the request.
func (c *Controller) recordOutcome(ctx context.Context, id string, success bool) error {
	err := c.registry.RecordOutcome(ctx, id, success)
	if err == nil {
		return nil
	}
	if conduiterr.IsLockTimeout(err) {
		c.metrics.ObserveLockTimeout()
		return nil
	}
	return err
}

// attemptedIDs lists the providers that actually received a call,
// excluding skipped entries.
func attemptedIDs(attempts []provider.Attempt) string {
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if a.Outcome == provider.OutcomeSkipped {
			continue
		}
		ids = append(ids, a.Provider)
	}
	return strings.Join(ids, ",")
}

// failureTrail renders the per-provider failure reasons for the terminal
// error. Reasons come from adapter error messages, which never embed
// credentials or raw upstream payloads.
func failureTrail(attempts []provider.Attempt) map[string]string {
	trail := make(map[string]string, len(attempts))
	for _, a := range attempts {
		if a.Outcome == provider.OutcomeFailure {
			trail[a.Provider] = a.Reason
		}
	}
	return trail
}
