// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when the config file is group- or
// world-readable. The config can carry literal API keys, so other users on
// the machine should not be able to read it. Best effort: startup never
// fails on this.
func WarnInsecurePermissions(path string) {
	if path == "" {
		// Defaults only, no file to check.
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	mode := info.Mode()
	perm := mode.Perm()

	const groupRead fs.FileMode = 0o040
	const otherRead fs.FileMode = 0o004

	if perm&(groupRead|otherRead) != 0 {
		slog.Warn(
			"config file is readable by other users and may expose API keys",
			"path", path,
			"mode", mode,
			"recommended", "0600",
		)
	}
}
