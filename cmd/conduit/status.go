// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/conduit-dev/conduit/pkg/health"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show provider status from a running gateway",
		Long:  "Query the running gateway's provider endpoint and print availability and failure counts per provider.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:8790", "gateway address to query")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	gw := newGatewayClient(addr)
	var body struct {
		Providers []health.Status `json:"providers"`
	}
	if err := gw.getJSON("/v1/providers", &body); err != nil {
		if conduiterr.HasCode(err, conduiterr.CodeCLIGatewayNotRunning) {
			_, _ = fmt.Fprintf(out, "Gateway at %s is not running (connection refused)\n", addr)
			return nil
		}
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRIORITY\tPROVIDER\tAVAILABLE\tFAILURES\tLAST HEALTH CHECK")
	for _, s := range body.Providers {
		lastCheck := "-"
		if s.LastHealthCheck != nil {
			lastCheck = s.LastHealthCheck.Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%t\t%d\t%s\n",
			s.Priority, s.Provider, s.Available, s.ConsecutiveFailures, lastCheck)
	}
	return w.Flush()
}
