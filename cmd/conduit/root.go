// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/internal/config"
)

// NewRootCmd creates the root conduit command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "conduit",
		Short:         "Conduit, an AI provider failover gateway",
		Long:          "Conduit routes inference requests across a priority-ordered provider chain with automatic failover and recovery.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newCheckCmd(),
		newKeysCmd(),
		newVersionCmd(),
	)

	return root
}

// resolveConfigPath returns the config file to load: the --config flag if
// set, otherwise ./conduit.yaml, otherwise the default user path
// (bootstrapped with a commented template on first run). An empty return
// means defaults only.
func resolveConfigPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}

	if _, err := os.Stat("conduit.yaml"); err == nil {
		return "conduit.yaml"
	}

	defaultPath, err := config.DefaultConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	if path := config.BootstrapConfig(); path != "" {
		return path
	}
	return ""
}
