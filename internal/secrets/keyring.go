// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/zalando/go-keyring"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// indexSuffix names the keyring entry that holds the JSON list of stored
// key names per service. go-keyring cannot enumerate keys, so Keys() is
// backed by this index.
const indexSuffix = "::index"

// Keyring implements Store on the OS keyring: Keychain on macOS,
// secret-service on Linux, Credential Manager on Windows.
type Keyring struct{}

// NewKeyring returns a Keyring store.
func NewKeyring() *Keyring {
	return &Keyring{}
}

func (s *Keyring) Set(service, key, value string) error {
	if err := checkServiceKey(service, key); err != nil {
		return err
	}

	if err := keyring.Set(service, key, value); err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeSecretBackendFailure, "storing secret %s/%s", service, key)
	}
	return s.indexAdd(service, key)
}

func (s *Keyring) Get(service, key string) (string, error) {
	if err := checkServiceKey(service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", notFound(service, key)
		}
		return "", conduiterr.Wrapf(err, conduiterr.CodeSecretBackendFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *Keyring) Delete(service, key string) error {
	if err := checkServiceKey(service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return notFound(service, key)
		}
		return conduiterr.Wrapf(err, conduiterr.CodeSecretBackendFailure, "deleting secret %s/%s", service, key)
	}
	return s.indexRemove(service, key)
}

func (s *Keyring) Keys(service string) ([]string, error) {
	return s.indexLoad(service)
}

func (s *Keyring) indexLoad(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+indexSuffix)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, conduiterr.Wrapf(err, conduiterr.CodeSecretBackendFailure, "loading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeSecretBackendFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

func (s *Keyring) indexSave(service string, keys []string) error {
	indexKey := service + indexSuffix

	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("removing empty key index failed", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeSecretBackendFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeSecretBackendFailure, "saving key index for %s", service)
	}
	return nil
}

func (s *Keyring) indexAdd(service, key string) error {
	keys, err := s.indexLoad(service)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	return s.indexSave(service, append(keys, key))
}

func (s *Keyring) indexRemove(service, key string) error {
	keys, err := s.indexLoad(service)
	if err != nil {
		return err
	}

	kept := keys[:0]
	for _, k := range keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	return s.indexSave(service, kept)
}
