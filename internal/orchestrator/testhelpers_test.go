// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package orchestrator_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/conduit-dev/conduit/internal/orchestrator"
	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a configurable provider.Provider for orchestrator tests.
type fakeProvider struct {
	name         string
	available    bool
	healthErr    error
	completeFunc func(context.Context, provider.Request) (*provider.Response, error)

	completeCalls atomic.Int64
	healthCalls   atomic.Int64
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, available: true}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Available(_ context.Context) bool { return f.available }

func (f *fakeProvider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	f.completeCalls.Add(1)
	if f.completeFunc != nil {
		return f.completeFunc(ctx, req)
	}
	return &provider.Response{
		Text:     "ok from " + f.name,
		Model:    "test-model",
		Provider: f.name,
		Usage:    provider.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func (f *fakeProvider) HealthCheck(_ context.Context) error {
	f.healthCalls.Add(1)
	return f.healthErr
}

func (f *fakeProvider) ModelInfo() provider.ModelInfo {
	return provider.ModelInfo{ID: f.name + "-model", Provider: f.name}
}

func (f *fakeProvider) Close() error { return nil }

func alwaysFailing(name string) *fakeProvider {
	p := newFakeProvider(name)
	p.completeFunc = func(context.Context, provider.Request) (*provider.Response, error) {
		return nil, conduiterr.New(conduiterr.CodeProviderUpstreamFailure,
			name+": upstream returned 503", conduiterr.FieldProvider(name))
	}
	return p
}

func userRequest(content string) provider.Request {
	return provider.Request{
		Messages: []provider.Message{
			{Role: provider.MessageRoleUser, Content: content},
		},
	}
}

// newTestOrchestrator builds an orchestrator over the given providers in
// priority order, with a dedicated locker so tests can contend on it.
func newTestOrchestrator(t *testing.T, threshold int, providers ...provider.Provider) (*orchestrator.Orchestrator, *provider.Registry, *provider.Locker) {
	t.Helper()

	locker, err := provider.NewLocker(provider.DefaultLockTimeout)
	require.NoError(t, err)
	return newTestOrchestratorWithLocker(t, locker, threshold, providers...)
}

func newTestOrchestratorWithLocker(t *testing.T, locker *provider.Locker, threshold int, providers ...provider.Provider) (*orchestrator.Orchestrator, *provider.Registry, *provider.Locker) {
	t.Helper()

	reg, err := provider.NewRegistry(locker, threshold, providers)
	require.NoError(t, err)

	orch, err := orchestrator.New(orchestrator.Config{
		Registry:       reg,
		CallTimeout:    time.Second,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	return orch, reg, locker
}

// disableProvider drives a provider past the failure threshold.
func disableProvider(t *testing.T, reg *provider.Registry, id string, threshold int) {
	t.Helper()
	for i := 0; i < threshold; i++ {
		require.NoError(t, reg.RecordOutcome(context.Background(), id, false))
	}
}
