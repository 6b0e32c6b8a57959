// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root switchyard command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "switchyard",
		Short:         "Switchyard: multi-provider failover orchestrator",
		Long:          "Switchyard executes work against a preferred provider and transparently redirects to fallbacks when it is rate-limited, erroring, or unreachable.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// setupLogging installs the process-wide JSON slog handler.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
