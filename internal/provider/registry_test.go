// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package provider_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, threshold int, providers ...provider.Provider) *provider.Registry {
	t.Helper()
	locker, err := provider.NewLocker(provider.DefaultLockTimeout)
	require.NoError(t, err)
	reg, err := provider.NewRegistry(locker, threshold, providers)
	require.NoError(t, err)
	return reg
}

func TestNewRegistry_Validation(t *testing.T) {
	locker, err := provider.NewLocker(time.Second)
	require.NoError(t, err)

	_, err = provider.NewRegistry(locker, 3, nil)
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeConfigValidateInvalidValue))

	_, err = provider.NewRegistry(locker, 0, []provider.Provider{newFakeProvider("a")})
	require.Error(t, err)

	_, err = provider.NewRegistry(locker, 3, []provider.Provider{
		newFakeProvider("a"),
		newFakeProvider("a"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRegistry_CandidatesPriorityOrder(t *testing.T) {
	a := newFakeProvider("anthropic")
	b := newFakeProvider("openai")
	c := newFakeProvider("google")
	reg := newTestRegistry(t, 3, a, b, c)

	candidates, skipped, err := reg.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Empty(t, skipped)
	assert.Equal(t, "anthropic", candidates[0].Name())
	assert.Equal(t, "openai", candidates[1].Name())
	assert.Equal(t, "google", candidates[2].Name())
}

func TestRegistry_CandidatesExcludeDisabled(t *testing.T) {
	a := newFakeProvider("anthropic")
	b := newFakeProvider("openai")
	reg := newTestRegistry(t, 3, a, b)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.RecordOutcome(ctx, "anthropic", false))
	}

	candidates, skipped, err := reg.Candidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "openai", candidates[0].Name())
	assert.Equal(t, []string{"anthropic"}, skipped,
		"the bypassed provider must be reported for the attempt trail")
}

func TestRegistry_ThresholdDisablesExactlyOnce(t *testing.T) {
	a := newFakeProvider("anthropic")
	reg := newTestRegistry(t, 3, a, newFakeProvider("openai"))
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reg.SetNowFunc(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.RecordOutcome(ctx, "anthropic", false))
	}

	snap := reg.Snapshot()
	require.Equal(t, "anthropic", snap[0].Provider)
	assert.False(t, snap[0].Available)
	assert.Equal(t, 3, snap[0].ConsecutiveFailures)
	require.NotNil(t, snap[0].LastHealthCheck)
	assert.Equal(t, now, *snap[0].LastHealthCheck)

	// Further failures while disabled neither grow the streak nor
	// restamp the disable time.
	later := now.Add(time.Minute)
	reg.SetNowFunc(func() time.Time { return later })
	require.NoError(t, reg.RecordOutcome(ctx, "anthropic", false))

	snap = reg.Snapshot()
	assert.Equal(t, 3, snap[0].ConsecutiveFailures)
	assert.Equal(t, now, *snap[0].LastHealthCheck)
}

func TestRegistry_SuccessResetsOnlyThatProvider(t *testing.T) {
	reg := newTestRegistry(t, 3, newFakeProvider("anthropic"), newFakeProvider("openai"))
	ctx := context.Background()

	require.NoError(t, reg.RecordOutcome(ctx, "anthropic", false))
	require.NoError(t, reg.RecordOutcome(ctx, "openai", false))
	require.NoError(t, reg.RecordOutcome(ctx, "openai", false))

	require.NoError(t, reg.RecordOutcome(ctx, "anthropic", true))

	snap := reg.Snapshot()
	assert.Equal(t, 0, snap[0].ConsecutiveFailures) // anthropic reset
	assert.Equal(t, 2, snap[1].ConsecutiveFailures) // openai untouched
}

func TestRegistry_SuccessReenablesDisabledProvider(t *testing.T) {
	reg := newTestRegistry(t, 3, newFakeProvider("anthropic"), newFakeProvider("openai"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.RecordOutcome(ctx, "anthropic", false))
	}
	require.False(t, reg.Snapshot()[0].Available)

	require.NoError(t, reg.RecordOutcome(ctx, "anthropic", true))

	snap := reg.Snapshot()
	assert.True(t, snap[0].Available)
	assert.Equal(t, 0, snap[0].ConsecutiveFailures)

	// Recovered provider is first in priority again.
	candidates, _, err := reg.Candidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", candidates[0].Name())
}

func TestRegistry_ReenableAvailableProviderIsNoop(t *testing.T) {
	reg := newTestRegistry(t, 3, newFakeProvider("anthropic"))
	ctx := context.Background()

	before := reg.Snapshot()
	require.NoError(t, reg.RecordOutcome(ctx, "anthropic", true))
	require.NoError(t, reg.RecordProbe(ctx, "anthropic", true))
	after := reg.Snapshot()

	assert.Equal(t, before[0].Available, after[0].Available)
	assert.Equal(t, 0, after[0].ConsecutiveFailures)
}

func TestRegistry_RecordOutcomeUnknownProvider(t *testing.T) {
	reg := newTestRegistry(t, 3, newFakeProvider("anthropic"))

	err := reg.RecordOutcome(context.Background(), "bogus", false)
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeProviderNotFound))

	_, err = reg.Provider("bogus")
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeProviderNotFound))
}

func TestRegistry_UnhealthyProbeStampsTimeOnly(t *testing.T) {
	reg := newTestRegistry(t, 3, newFakeProvider("anthropic"))
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reg.SetNowFunc(func() time.Time { return now })

	require.NoError(t, reg.RecordProbe(ctx, "anthropic", false))

	snap := reg.Snapshot()
	assert.True(t, snap[0].Available, "failed probe must not count as a service failure")
	assert.Equal(t, 0, snap[0].ConsecutiveFailures)
	require.NotNil(t, snap[0].LastHealthCheck)
	assert.Equal(t, now, *snap[0].LastHealthCheck)
}

func TestRegistry_ConcurrentFailuresAreNotLost(t *testing.T) {
	const n = 64
	reg := newTestRegistry(t, n+1, newFakeProvider("anthropic"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.RecordOutcome(ctx, "anthropic", false)
		}()
	}
	wg.Wait()

	snap := reg.Snapshot()
	assert.Equal(t, n, snap[0].ConsecutiveFailures)
	assert.True(t, snap[0].Available)
}

func TestRegistry_SnapshotSortedByPriority(t *testing.T) {
	reg := newTestRegistry(t, 3,
		newFakeProvider("anthropic"),
		newFakeProvider("openai"),
		newFakeProvider("openrouter"),
	)

	snap := reg.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{snap[0].Priority, snap[1].Priority, snap[2].Priority})
	assert.Equal(t, "anthropic", snap[0].Provider)

	assert.Equal(t, []string{"anthropic", "openai", "openrouter"}, reg.IDs())
}
