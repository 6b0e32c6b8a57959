// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

// DefaultConfigPath returns ~/.config/switchyard/switchyard.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", syerr.Errorf(syerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "switchyard", "switchyard.yaml"), nil
}

// DefaultConfigYAML renders the canonical defaults as a YAML document.
// Generated from the same values Load seeds, so the bootstrap file cannot
// drift from the in-code defaults.
func DefaultConfigYAML() ([]byte, error) {
	doc := map[string]any{
		"failover": map[string]any{
			"primary":               "claude",
			"chain":                 []string{"groq", "ollama"},
			"auto_return":           true,
			"health_check_interval": "30s",
			"retry_defaults": map[string]any{
				"max_attempts": 3,
				"base_delay":   "500ms",
				"timeout":      "60s",
			},
		},
		"server": map[string]any{
			"listen": "127.0.0.1:18790",
		},
	}
	return yaml.Marshal(doc)
}

// BootstrapConfig writes the default config to path if it does not already
// exist. Returns the path written, or empty string if the file already
// existed or an error occurred (non-fatal, logged and skipped).
func BootstrapConfig() string {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("skipping config bootstrap", "error", err)
		return ""
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return "" // already exists
	}

	raw, err := DefaultConfigYAML()
	if err != nil {
		slog.Debug("skipping config bootstrap: cannot render defaults", "error", err)
		return ""
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Debug("skipping config bootstrap: cannot create directory", "path", dir, "error", err)
		return ""
	}

	if err := os.WriteFile(cfgPath, raw, 0o600); err != nil {
		slog.Debug("skipping config bootstrap: cannot write config", "path", cfgPath, "error", err)
		return ""
	}

	slog.Info("created default config", "path", cfgPath)
	return cfgPath
}
