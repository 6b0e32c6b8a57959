// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-dev/switchyard/internal/config"
	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

func testWireConfig() *config.Config {
	return &config.Config{
		Failover: config.FailoverConfig{
			Primary:             "claude",
			Chain:               []string{"groq", "ollama"},
			AutoReturn:          true,
			HealthCheckInterval: 30 * time.Second,
			RetryDefaults: config.RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   500 * time.Millisecond,
				Timeout:     time.Minute,
			},
		},
		Providers: map[string]config.ProviderConfig{
			"claude": {Endpoint: "http://127.0.0.1:9001"},
			"groq":   {Endpoint: "http://127.0.0.1:9002"},
			"ollama": {Endpoint: "http://127.0.0.1:9003"},
		},
		Server: config.ServerConfig{Listen: "127.0.0.1:0"},
	}
}

func TestWireOrchestrator(t *testing.T) {
	orch, srv, err := wireOrchestrator(testWireConfig())
	require.NoError(t, err)

	assert.NotNil(t, orch)
	assert.NotNil(t, srv)
	assert.Equal(t, provider.Claude, orch.Active())
	assert.Equal(t, provider.Claude, orch.Primary())
}

func TestWireOrchestrator_MissingEndpoint(t *testing.T) {
	cfg := testWireConfig()
	delete(cfg.Providers, "ollama")

	_, _, err := wireOrchestrator(cfg)
	require.Error(t, err)
	assert.True(t, syerr.HasCode(err, syerr.CodeCLISetupFailure))
}

func TestWireOrchestrator_UnknownProvider(t *testing.T) {
	cfg := testWireConfig()
	cfg.Failover.Chain = []string{"copilot"}

	_, _, err := wireOrchestrator(cfg)
	require.Error(t, err)
	assert.True(t, syerr.HasCode(err, syerr.CodeCLISetupFailure))
}
