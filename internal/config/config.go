// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package config

import (
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conduit-dev/conduit/internal/secrets"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// Config is the top-level Conduit configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Failover  FailoverConfig   `mapstructure:"failover"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

// ServerConfig controls how the gateway listens for connections.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// FailoverConfig tunes the failover engine. Durations accept Go syntax
// ("2s", "500ms").
type FailoverConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ProbeInterval    time.Duration `mapstructure:"probe_interval"`
	ProbeCooldown    time.Duration `mapstructure:"probe_cooldown"`
}

// ProviderConfig declares one upstream provider. List position is failover
// priority: the first entry is tried first.
type ProviderConfig struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// ProviderTypes lists the adapter implementations Conduit ships.
var ProviderTypes = []string{"anthropic", "openai", "openrouter", "google"}

// Load reads configuration from path (or defaults when path is empty) with
// environment variable overrides (prefix CONDUIT_). When store is non-nil,
// keyring:// values are resolved against it before decoding.
func Load(path string, store secrets.Store) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8790")
	v.SetDefault("failover.failure_threshold", 3)
	v.SetDefault("failover.lock_timeout", "2s")
	v.SetDefault("failover.call_timeout", "30s")
	v.SetDefault("failover.request_timeout", "60s")
	v.SetDefault("failover.probe_interval", "15s")
	v.SetDefault("failover.probe_cooldown", "30s")

	// Environment
	v.SetEnvPrefix("CONDUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, conduiterr.Errorf(conduiterr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	if store != nil {
		secrets.ResolveViper(v, store)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, conduiterr.Errorf(conduiterr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	// viper does not descend into slice elements, so provider api_key
	// references are resolved on the decoded struct.
	if store != nil {
		for i := range cfg.Providers {
			resolved, err := secrets.Resolve(store, cfg.Providers[i].APIKey)
			if err != nil {
				slog.Warn("keyring reference left unresolved",
					"provider", cfg.Providers[i].Name, "error", err)
				continue
			}
			cfg.Providers[i].APIKey = resolved
		}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It collects every
// issue found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateFailover()...)
	errs = append(errs, c.validateProviders()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	host, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}
	_ = host // an empty host (":8790") binds all interfaces, which is valid

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateFailover() []error {
	var errs []error

	if c.Failover.FailureThreshold < 1 {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: failover.failure_threshold must be at least 1, got %d",
			c.Failover.FailureThreshold,
		))
	}

	durations := []struct {
		key string
		val time.Duration
	}{
		{"failover.lock_timeout", c.Failover.LockTimeout},
		{"failover.call_timeout", c.Failover.CallTimeout},
		{"failover.request_timeout", c.Failover.RequestTimeout},
		{"failover.probe_interval", c.Failover.ProbeInterval},
		{"failover.probe_cooldown", c.Failover.ProbeCooldown},
	}
	for _, d := range durations {
		if d.val <= 0 {
			errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
				"config: %s must be a positive duration, got %s", d.key, d.val))
		}
	}

	if c.Failover.CallTimeout > c.Failover.RequestTimeout {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: failover.call_timeout (%s) must not exceed failover.request_timeout (%s)",
			c.Failover.CallTimeout, c.Failover.RequestTimeout,
		))
	}

	return errs
}

func (c *Config) validateProviders() []error {
	var errs []error

	if len(c.Providers) == 0 {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: providers must list at least one provider"))
		return errs
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
				"config: providers[%d].name must not be empty", i))
		} else if seen[p.Name] {
			errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
				"config: providers[%d].name %q is already used by an earlier entry", i, p.Name))
		}
		seen[p.Name] = true

		if !validProviderType(p.Type) {
			errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
				"config: providers[%d].type must be one of [%s], got %q",
				i, strings.Join(ProviderTypes, ", "), p.Type))
		}

		// A missing api_key is not a validation error: the entry is
		// skipped at startup with a warning so the remaining chain still
		// serves.
	}

	return errs
}

func validProviderType(t string) bool {
	for _, known := range ProviderTypes {
		if t == known {
			return true
		}
	}
	return false
}
