// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"log/slog"

	"github.com/conduit-dev/conduit/internal/config"
	"github.com/conduit-dev/conduit/internal/metrics"
	"github.com/conduit-dev/conduit/internal/orchestrator"
	"github.com/conduit-dev/conduit/internal/provider"
	anthropicprov "github.com/conduit-dev/conduit/internal/provider/anthropic"
	googleprov "github.com/conduit-dev/conduit/internal/provider/google"
	openaiprov "github.com/conduit-dev/conduit/internal/provider/openai"
	openrouterprov "github.com/conduit-dev/conduit/internal/provider/openrouter"
	"github.com/conduit-dev/conduit/internal/secrets"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// buildProviders constructs adapters for the configured providers in list
// order. Entries without a usable api_key (empty, or a keyring reference
// that did not resolve) are skipped with a warning so the rest of the
// chain still serves.
func buildProviders(cfgs []config.ProviderConfig) ([]provider.Provider, error) {
	providers := make([]provider.Provider, 0, len(cfgs))

	for _, pc := range cfgs {
		if pc.APIKey == "" || secrets.IsKeyringRef(pc.APIKey) {
			slog.Warn("skipping provider without credentials", "provider", pc.Name)
			continue
		}

		p, err := newProvider(pc)
		if err != nil {
			return nil, conduiterr.Wrapf(err, conduiterr.CodeCLISetupFailure, "building provider %q", pc.Name)
		}
		providers = append(providers, provider.WithName(pc.Name, p))
	}

	if len(providers) == 0 {
		return nil, conduiterr.New(conduiterr.CodeCLISetupFailure,
			"no provider has credentials: store keys with 'conduit keys set' or set api_key in config")
	}
	return providers, nil
}

func newProvider(pc config.ProviderConfig) (provider.Provider, error) {
	switch pc.Type {
	case "anthropic":
		return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint, Model: pc.Model})
	case "openai":
		return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint, Model: pc.Model})
	case "openrouter":
		return openrouterprov.New(openrouterprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint, Model: pc.Model})
	case "google":
		return googleprov.New(googleprov.Config{APIKey: pc.APIKey, Model: pc.Model})
	default:
		return nil, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue, "unknown provider type %q", pc.Type)
	}
}

// wireOrchestrator builds the failover engine from config: adapters, lock
// manager, registry, and orchestrator. metrics may be nil (one-shot CLI
// commands).
func wireOrchestrator(cfg *config.Config, m *metrics.Metrics) (*orchestrator.Orchestrator, error) {
	providers, err := buildProviders(cfg.Providers)
	if err != nil {
		return nil, err
	}

	locker, err := provider.NewLocker(cfg.Failover.LockTimeout)
	if err != nil {
		return nil, err
	}

	registry, err := provider.NewRegistry(locker, cfg.Failover.FailureThreshold, providers)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(orchestrator.Config{
		Registry:       registry,
		CallTimeout:    cfg.Failover.CallTimeout,
		RequestTimeout: cfg.Failover.RequestTimeout,
		Metrics:        m,
	})
}
