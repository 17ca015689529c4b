// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-dev/conduit/internal/secrets"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// serviceName is the keyring service under which Conduit stores API keys.
// Config files reference entries as keyring://conduit/<name>.
const serviceName = "conduit"

// keyStoreFactory creates the secrets.Store for the keys commands. A
// package-level variable so tests can substitute the in-memory store.
var keyStoreFactory = func() secrets.Store {
	return secrets.NewKeyring()
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys stored in the OS keyring",
		Long:  "Store, list, and delete provider API keys held under the conduit service in the operating system keyring.",
	}

	cmd.AddCommand(
		newKeysSetCmd(),
		newKeysListCmd(),
		newKeysDeleteCmd(),
	)

	return cmd
}

func newKeysSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store an API key",
		Args:  cobra.ExactArgs(2),
		RunE:  runKeysSet,
	}
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored key names",
		RunE:  runKeysList,
	}
}

func newKeysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeysDelete,
	}
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	name, value := args[0], args[1]

	store := keyStoreFactory()
	if err := store.Set(serviceName, name, value); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored key %q; reference it as keyring://%s/%s\n", name, serviceName, name)
	return nil
}

func runKeysList(cmd *cobra.Command, _ []string) error {
	store := keyStoreFactory()
	keys, err := store.Keys(serviceName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "No keys stored.")
		return nil
	}

	for _, k := range keys {
		_, _ = fmt.Fprintln(out, k)
	}
	return nil
}

func runKeysDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	store := keyStoreFactory()
	if err := store.Delete(serviceName, name); err != nil {
		if conduiterr.HasCode(err, conduiterr.CodeSecretNotFound) {
			return conduiterr.Errorf(conduiterr.CodeSecretNotFound, "key %q not found", name)
		}
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted key: %s\n", name)
	return nil
}
