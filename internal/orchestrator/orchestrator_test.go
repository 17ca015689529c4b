// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package orchestrator_test

import (
	"context"
	"testing"

	"github.com/conduit-dev/conduit/internal/orchestrator"
	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresRegistry(t *testing.T) {
	_, err := orchestrator.New(orchestrator.Config{})
	require.Error(t, err)
}

func TestGetPredictionRejectsMalformedRequest(t *testing.T) {
	primary := newFakeProvider("anthropic")
	orch, reg, _ := newTestOrchestrator(t, 3, primary)

	_, err := orch.GetPrediction(context.Background(), provider.Request{})
	require.Error(t, err)
	assert.True(t, conduiterr.IsInvalidInput(err))

	// A malformed request is the caller's fault: nothing is attempted and
	// no provider takes the blame.
	assert.Equal(t, int64(0), primary.completeCalls.Load())
	for _, s := range reg.Snapshot() {
		assert.Zero(t, s.ConsecutiveFailures)
		assert.True(t, s.Available)
	}
}

func TestGetPredictionStampsRequestMetadata(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 3, newFakeProvider("anthropic"))

	resp, err := orch.GetPrediction(context.Background(), userRequest("hello"))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, "anthropic", resp.Attempts[0].Provider)
}

func TestGetPredictionErrorCarriesRequestID(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 3, alwaysFailing("anthropic"))

	_, err := orch.GetPrediction(context.Background(), userRequest("hello"))
	require.Error(t, err)
	assert.NotEmpty(t, conduiterr.FieldsOf(err)["request_id"])
}

func TestProviderStatusSortedByPriority(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 3,
		newFakeProvider("anthropic"),
		newFakeProvider("openai"),
		newFakeProvider("google"),
	)

	statuses := orch.ProviderStatus()
	require.Len(t, statuses, 3)
	assert.Equal(t, "anthropic", statuses[0].Provider)
	assert.Equal(t, "openai", statuses[1].Provider)
	assert.Equal(t, "google", statuses[2].Provider)
	for i, s := range statuses {
		assert.Equal(t, i+1, s.Priority)
	}
}

func TestHealthCheckAllReenablesRecoveredProvider(t *testing.T) {
	primary := alwaysFailing("anthropic")
	secondary := newFakeProvider("openai")
	orch, reg, _ := newTestOrchestrator(t, 3, primary, secondary)

	ctx := context.Background()
	disableProvider(t, reg, "anthropic", 3)

	// Upstream recovered: the adapter reports healthy again.
	primary.completeFunc = nil
	primary.healthErr = nil

	results := orch.HealthCheckAll(ctx)
	assert.True(t, results["anthropic"])
	assert.True(t, results["openai"])

	for _, s := range reg.Snapshot() {
		if s.Provider == "anthropic" {
			assert.True(t, s.Available)
			assert.Zero(t, s.ConsecutiveFailures)
		}
	}

	// Recovery restores the provider to its original slot in the order.
	resp, err := orch.GetPrediction(ctx, userRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "anthropic", resp.Provider)
}

func TestHealthCheckAllLeavesUnhealthyProviderDisabled(t *testing.T) {
	primary := alwaysFailing("anthropic")
	primary.healthErr = conduiterr.New(conduiterr.CodeProviderUpstreamFailure, "anthropic: still down")
	secondary := newFakeProvider("openai")
	orch, reg, _ := newTestOrchestrator(t, 3, primary, secondary)

	ctx := context.Background()
	disableProvider(t, reg, "anthropic", 3)

	results := orch.HealthCheckAll(ctx)
	assert.False(t, results["anthropic"])
	assert.True(t, results["openai"])

	for _, s := range reg.Snapshot() {
		switch s.Provider {
		case "anthropic":
			assert.False(t, s.Available)
			require.NotNil(t, s.LastHealthCheck, "a failed probe still stamps the check time")
		case "openai":
			assert.True(t, s.Available)
		}
	}
}
