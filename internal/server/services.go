// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package server

import (
	"context"

	"github.com/conduit-dev/conduit/internal/provider"
	"github.com/conduit-dev/conduit/pkg/health"
)

// PredictionService is the orchestrator surface the route handlers need.
// It is an interface so handlers can be tested against a fake.
type PredictionService interface {
	// GetPrediction serves one inference request through the failover
	// chain.
	GetPrediction(ctx context.Context, req provider.Request) (*provider.Response, error)

	// ProviderStatus returns a read-only snapshot of all provider records.
	ProviderStatus() []health.Status

	// HealthCheckAll probes every provider and returns per-provider
	// health.
	HealthCheckAll(ctx context.Context) map[string]bool
}
