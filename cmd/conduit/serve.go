// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/internal/config"
	"github.com/conduit-dev/conduit/internal/metrics"
	"github.com/conduit-dev/conduit/internal/orchestrator"
	"github.com/conduit-dev/conduit/internal/secrets"
	"github.com/conduit-dev/conduit/internal/server"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the conduit gateway",
		Long:  "Load configuration, build the provider chain, and serve the HTTP API until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgPath := resolveConfigPath(cmd)

	cfg, err := config.Load(cfgPath, secrets.NewKeyring())
	if err != nil {
		return err
	}
	config.WarnInsecurePermissions(cfgPath)

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("conduit", promReg)

	orch, err := wireOrchestrator(cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := orch.Close(); err != nil {
			slog.Warn("closing providers", "error", err)
		}
	}()

	prober, err := orchestrator.NewProber(orch.Registry(), cfg.Failover.ProbeInterval, cfg.Failover.ProbeCooldown, m)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr: cfg.Server.Listen,
		Gatherer:   promReg,
	})
	if err != nil {
		return err
	}
	srv.RegisterService(orch)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prober.Start(ctx)
	defer prober.Stop()

	slog.Info("conduit gateway listening",
		"addr", cfg.Server.Listen,
		"providers", len(cfg.Providers),
		"failure_threshold", cfg.Failover.FailureThreshold,
	)

	if err := srv.Start(ctx); err != nil {
		return conduiterr.Wrap(err, conduiterr.CodeServerStartFailure, "gateway stopped")
	}
	return nil
}
