// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package secrets_test

import (
	"testing"

	"github.com/conduit-dev/conduit/internal/secrets"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	// All keyring tests run against the in-process mock, never the OS
	// keyring service.
	keyring.MockInit()
}

// stores returns both Store implementations so the contract tests cover
// each backend.
func stores() map[string]secrets.Store {
	return map[string]secrets.Store{
		"memory":  secrets.NewMemory(),
		"keyring": secrets.NewKeyring(),
	}
}

func TestStoreSetAndGet(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			svc := "conduit-test-" + name

			require.NoError(t, store.Set(svc, "api-key", "sk-secret-123"))

			val, err := store.Get(svc, "api-key")
			require.NoError(t, err)
			assert.Equal(t, "sk-secret-123", val)
		})
	}
}

func TestStoreGetNotFound(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("conduit-missing-"+name, "no-key")
			require.Error(t, err)
			assert.True(t, conduiterr.HasCode(err, conduiterr.CodeSecretNotFound))
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			svc := "conduit-del-" + name

			require.NoError(t, store.Set(svc, "temp", "v"))
			require.NoError(t, store.Delete(svc, "temp"))

			_, err := store.Get(svc, "temp")
			require.Error(t, err)
			assert.True(t, conduiterr.HasCode(err, conduiterr.CodeSecretNotFound))

			err = store.Delete(svc, "temp")
			require.Error(t, err)
			assert.True(t, conduiterr.HasCode(err, conduiterr.CodeSecretNotFound))
		})
	}
}

func TestStoreKeys(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			svc := "conduit-keys-" + name

			keys, err := store.Keys(svc)
			require.NoError(t, err)
			assert.Empty(t, keys)

			require.NoError(t, store.Set(svc, "anthropic", "a"))
			require.NoError(t, store.Set(svc, "openai", "b"))
			require.NoError(t, store.Set(svc, "anthropic", "a2"))

			keys, err = store.Keys(svc)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"anthropic", "openai"}, keys)
		})
	}
}

func TestStoreRejectsEmptyServiceOrKey(t *testing.T) {
	for name, store := range stores() {
		t.Run(name, func(t *testing.T) {
			err := store.Set("", "k", "v")
			require.Error(t, err)
			assert.True(t, conduiterr.HasCode(err, conduiterr.CodeSecretInvalidInput))

			_, err = store.Get("svc", "")
			require.Error(t, err)
			assert.True(t, conduiterr.HasCode(err, conduiterr.CodeSecretInvalidInput))
		})
	}
}
