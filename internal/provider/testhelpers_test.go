// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package provider_test

import (
	"context"
	"sync/atomic"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// fakeProvider is a configurable provider.Provider for tests. Override
// completeFunc or healthErr to simulate upstream behavior.
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
		Model:    req.Model,
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

// failingProvider always fails Complete with an upstream error.
func failingProvider(name string) *fakeProvider {
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
