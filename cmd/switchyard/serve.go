// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/switchyard-dev/switchyard/internal/config"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the switchyard orchestrator daemon",
		Long:  "Load configuration, wire provider executors and probes, start health monitoring, and serve the observability API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		config.BootstrapConfig()
		if p, err := config.DefaultConfigPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				cfgPath = p
			}
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	orch, srv, err := wireOrchestrator(cfg)
	if err != nil {
		return fmt.Errorf("wiring orchestrator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch.Start(ctx)
	defer orch.Stop()

	slog.Info("switchyard started",
		"listen", cfg.Server.Listen,
		"primary", cfg.Failover.Primary,
		"chain", cfg.Failover.Chain,
		"auto_return", cfg.Failover.AutoReturn,
		"health_check_interval", cfg.Failover.HealthCheckInterval,
	)

	return srv.Start(ctx)
}
