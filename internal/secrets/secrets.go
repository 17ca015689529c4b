// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

// Package secrets stores provider credentials outside config files and
// resolves keyring:// references during config load.
package secrets

import (
	"sync"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// Store is a credential backend. The default backend is the OS keyring;
// Memory exists for tests and for platforms without a keyring service.
type Store interface {
	// Set saves value under service/key.
	Set(service, key, value string) error

	// Get fetches the value for service/key. A missing key reports
	// CodeSecretNotFound.
	Get(service, key string) (string, error)

	// Delete removes service/key. A missing key reports CodeSecretNotFound.
	Delete(service, key string) error

	// Keys lists the key names stored under service.
	Keys(service string) ([]string, error)
}

func checkServiceKey(service, key string) error {
	if service == "" {
		return conduiterr.New(conduiterr.CodeSecretInvalidInput, "secrets: service must not be empty")
	}
	if key == "" {
		return conduiterr.New(conduiterr.CodeSecretInvalidInput, "secrets: key must not be empty")
	}
	return nil
}

func notFound(service, key string) error {
	return conduiterr.Errorf(conduiterr.CodeSecretNotFound, "secret %s/%s not found", service, key)
}

// Memory is an in-process Store. Values are held in plain memory and lost
// on exit.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

func (m *Memory) Set(service, key, value string) error {
	if err := checkServiceKey(service, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[service] == nil {
		m.data[service] = make(map[string]string)
	}
	m.data[service][key] = value
	return nil
}

func (m *Memory) Get(service, key string) (string, error) {
	if err := checkServiceKey(service, key); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[service][key]
	if !ok {
		return "", notFound(service, key)
	}
	return val, nil
}

func (m *Memory) Delete(service, key string) error {
	if err := checkServiceKey(service, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[service][key]; !ok {
		return notFound(service, key)
	}
	delete(m.data[service], key)
	return nil
}

func (m *Memory) Keys(service string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data[service]))
	for k := range m.data[service] {
		keys = append(keys, k)
	}
	return keys, nil
}
