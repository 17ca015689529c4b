// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/internal/config"
	"github.com/conduit-dev/conduit/internal/secrets"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe every configured provider once",
		Long:  "Build the provider chain from config, run one health check per provider, and report the results. No gateway needs to be running.",
		RunE:  runCheck,
	}

	cmd.Flags().String("address", "", "probe through a running gateway at this address instead of directly")

	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	var results map[string]bool

	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		gw := newGatewayClient(addr)
		var body struct {
			Results map[string]bool `json:"results"`
		}
		if err := gw.postJSON("/v1/providers/health", &body); err != nil {
			return err
		}
		results = body.Results
	} else {
		cfg, err := config.Load(resolveConfigPath(cmd), secrets.NewKeyring())
		if err != nil {
			return err
		}

		orch, err := wireOrchestrator(cfg, nil)
		if err != nil {
			return err
		}
		defer func() { _ = orch.Close() }()

		results = orch.HealthCheckAll(cmd.Context())
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := 0
	for _, name := range names {
		mark := "FAIL"
		if results[name] {
			mark = "ok"
			healthy++
		}
		_, _ = fmt.Fprintf(out, "%-12s %s\n", name, mark)
	}

	if healthy == 0 {
		return conduiterr.New(conduiterr.CodeProviderAllExhausted, "no provider passed its health check")
	}
	return nil
}
