// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

//go:build !windows

package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/conduit-dev/conduit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs redirects slog's default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWarnInsecurePermissionsWorldReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: []"), 0o644))

	buf := captureLogs(t)
	config.WarnInsecurePermissions(path)
	assert.Contains(t, buf.String(), "readable by other users")
}

func TestWarnInsecurePermissionsOwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conduit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: []"), 0o600))

	buf := captureLogs(t)
	config.WarnInsecurePermissions(path)
	assert.NotContains(t, buf.String(), "readable by other users")
}

func TestWarnInsecurePermissionsMissingFile(t *testing.T) {
	buf := captureLogs(t)
	config.WarnInsecurePermissions(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NotContains(t, buf.String(), "readable by other users")
}

func TestWarnInsecurePermissionsEmptyPath(t *testing.T) {
	buf := captureLogs(t)
	config.WarnInsecurePermissions("")
	assert.Empty(t, buf.String())
}
