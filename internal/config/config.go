// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

// Config is the top-level switchyard configuration.
type Config struct {
	Failover  FailoverConfig            `mapstructure:"failover"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Server    ServerConfig              `mapstructure:"server"`
}

// FailoverConfig describes the primary provider, the ordered fallback chain,
// the auto-return policy, and retry parameters. It is read once at
// orchestrator construction and never mutated afterwards.
type FailoverConfig struct {
	Primary             string                 `mapstructure:"primary"`
	Chain               []string               `mapstructure:"chain"`
	AutoReturn          bool                   `mapstructure:"auto_return"`
	HealthCheckInterval time.Duration          `mapstructure:"health_check_interval"`
	RetryDefaults       RetryConfig            `mapstructure:"retry_defaults"`
	Retry               map[string]RetryConfig `mapstructure:"retry"`
}

// RetryConfig sets per-provider retry parameters for the execution runner.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ProviderConfig holds the endpoint (and optional key) the generic HTTP
// executor adapter uses for one provider.
type ProviderConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// ServerConfig controls the observability HTTP server.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// RetryFor returns the retry parameters for a provider, falling back to
// the defaults for any unset field.
func (f FailoverConfig) RetryFor(name string) RetryConfig {
	rc, ok := f.Retry[name]
	if !ok {
		return f.RetryDefaults
	}
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = f.RetryDefaults.MaxAttempts
	}
	if rc.BaseDelay == 0 {
		rc.BaseDelay = f.RetryDefaults.BaseDelay
	}
	if rc.Timeout == 0 {
		rc.Timeout = f.RetryDefaults.Timeout
	}
	return rc
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix SWITCHYARD_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("failover.primary", "claude")
	v.SetDefault("failover.chain", []string{"groq", "ollama"})
	v.SetDefault("failover.auto_return", true)
	v.SetDefault("failover.health_check_interval", "30s")
	v.SetDefault("failover.retry_defaults.max_attempts", 3)
	v.SetDefault("failover.retry_defaults.base_delay", "500ms")
	v.SetDefault("failover.retry_defaults.timeout", "60s")
	v.SetDefault("server.listen", "127.0.0.1:18790")

	// Environment
	v.SetEnvPrefix("SWITCHYARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, syerr.Errorf(syerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, syerr.Errorf(syerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, syerr.Errorf(syerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateFailover()...)
	errs = append(errs, c.validateProviders()...)
	errs = append(errs, c.validateServer()...)

	return errs
}

func (c *Config) validateFailover() []error {
	var errs []error

	if c.Failover.Primary == "" {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: failover.primary must not be empty"))
	} else if _, err := provider.ParseIdentity(c.Failover.Primary); err != nil {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: failover.primary: %w", err))
	}

	seen := map[string]bool{}
	for i, name := range c.Failover.Chain {
		if _, err := provider.ParseIdentity(name); err != nil {
			errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
				"config: failover.chain[%d]: %w", i, err))
			continue
		}
		if name == c.Failover.Primary {
			errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
				"config: failover.chain[%d] must not contain the primary provider %q", i, name))
		}
		if seen[name] {
			errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
				"config: failover.chain[%d] duplicates provider %q", i, name))
		}
		seen[name] = true
	}

	if c.Failover.HealthCheckInterval <= 0 {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: failover.health_check_interval must be positive, got %s",
			c.Failover.HealthCheckInterval))
	}

	errs = append(errs, validateRetry("failover.retry_defaults", c.Failover.RetryDefaults, true)...)
	for name, rc := range c.Failover.Retry {
		if _, err := provider.ParseIdentity(name); err != nil {
			errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
				"config: failover.retry[%s]: %w", name, err))
		}
		errs = append(errs, validateRetry("failover.retry."+name, rc, false)...)
	}

	return errs
}

// validateRetry checks a retry block. For the defaults block every field is
// required; per-provider overrides may leave fields zero to inherit.
func validateRetry(key string, rc RetryConfig, required bool) []error {
	var errs []error

	if rc.MaxAttempts < 0 || (required && rc.MaxAttempts == 0) {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: %s.max_attempts must be greater than 0, got %d", key, rc.MaxAttempts))
	}
	if rc.BaseDelay < 0 || (required && rc.BaseDelay == 0) {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: %s.base_delay must be positive, got %s", key, rc.BaseDelay))
	}
	if rc.Timeout < 0 || (required && rc.Timeout == 0) {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: %s.timeout must be positive, got %s", key, rc.Timeout))
	}

	return errs
}

func (c *Config) validateProviders() []error {
	var errs []error

	for name, pc := range c.Providers {
		if _, err := provider.ParseIdentity(name); err != nil {
			errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
				"config: providers.%s: %w", name, err))
		}
		if pc.Endpoint == "" {
			errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
				"config: providers.%s.endpoint must not be empty", name))
		}
	}

	// Only cross-reference endpoints when a providers section exists in
	// config. A nil map means the orchestrator is being wired with caller
	// supplied executors, which is valid.
	if c.Providers != nil {
		for _, name := range append([]string{c.Failover.Primary}, c.Failover.Chain...) {
			if _, ok := c.Providers[name]; !ok {
				errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
					"config: failover references provider %q which has no providers.%s entry", name, name))
			}
		}
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}
