// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package main

import (
	"github.com/switchyard-dev/switchyard/internal/config"
	"github.com/switchyard-dev/switchyard/internal/httpexec"
	"github.com/switchyard-dev/switchyard/internal/monitor"
	"github.com/switchyard-dev/switchyard/internal/orchestrator"
	"github.com/switchyard-dev/switchyard/internal/provider"
	"github.com/switchyard-dev/switchyard/internal/runner"
	"github.com/switchyard-dev/switchyard/internal/server"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

// wireOrchestrator builds the orchestrator and observability server from
// loaded configuration. The primary and every chain provider get one
// httpexec client serving as both executor and probe.
func wireOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, *server.Server, error) {
	fc, err := orchestrator.FromFailover(cfg.Failover)
	if err != nil {
		return nil, nil, syerr.Wrap(err, syerr.CodeCLISetupFailure, "parsing failover config")
	}

	executors := make(map[provider.Identity]provider.Executor)
	probes := make(map[provider.Identity]provider.Probe)
	for _, id := range append([]provider.Identity{fc.Primary}, fc.Chain...) {
		pc, ok := cfg.Providers[id.String()]
		if !ok {
			return nil, nil, syerr.New(syerr.CodeCLISetupFailure,
				"no endpoint configured for provider",
				syerr.FieldProvider(id.String()))
		}
		client := httpexec.New(id, pc.Endpoint, pc.APIKey, nil)
		executors[id] = client
		probes[id] = client
	}

	mon, err := monitor.New(probes, fc.HealthCheckInterval)
	if err != nil {
		return nil, nil, syerr.Wrap(err, syerr.CodeCLISetupFailure, "creating health monitor")
	}

	orch, err := orchestrator.New(fc, executors, mon, runner.New(provider.DefaultClassifier))
	if err != nil {
		return nil, nil, syerr.Wrap(err, syerr.CodeCLISetupFailure, "creating orchestrator")
	}

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, orch)
	if err != nil {
		return nil, nil, syerr.Wrap(err, syerr.CodeCLISetupFailure, "creating server")
	}

	return orch, srv, nil
}
