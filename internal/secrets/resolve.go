// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package secrets

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringRef reports whether value is a keyring://service/key reference.
func IsKeyringRef(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringRef splits a keyring://service/key reference into its parts.
func ParseKeyringRef(ref string) (service, key string, err error) {
	if !IsKeyringRef(ref) {
		return "", "", conduiterr.Errorf(conduiterr.CodeSecretInvalidInput, "not a keyring reference: %q", ref)
	}

	parts := strings.SplitN(strings.TrimPrefix(ref, keyringScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", conduiterr.Errorf(conduiterr.CodeSecretInvalidInput,
			"invalid keyring reference %q: expected keyring://service/key", ref)
	}
	return parts[0], parts[1], nil
}

// Resolve returns the secret a keyring:// reference points at. A value
// that is not a keyring reference is returned unchanged.
func Resolve(store Store, value string) (string, error) {
	if !IsKeyringRef(value) {
		return value, nil
	}

	service, key, err := ParseKeyringRef(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Get(service, key)
	if err != nil {
		return "", conduiterr.Wrapf(err, conduiterr.CodeSecretResolveFailure, "resolving %q", value)
	}
	return secret, nil
}

// ResolveViper rewrites every keyring:// string value in v with the
// secret it references. Resolution runs once after config load; a failed
// lookup keeps the reference in place and is surfaced later, when the
// provider using it fails its credential check.
func ResolveViper(v *viper.Viper, store Store) {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if !IsKeyringRef(val) {
			continue
		}

		resolved, err := Resolve(store, val)
		if err != nil {
			slog.Warn("keyring reference left unresolved", "config_key", key, "error", err)
			continue
		}
		v.Set(key, resolved)
	}
}
