// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcsunnyside/onlinemodeverify/internal/config"
	"github.com/mcsunnyside/onlinemodeverify/internal/identity"
	"github.com/mcsunnyside/onlinemodeverify/internal/logging"
	"github.com/mcsunnyside/onlinemodeverify/internal/verify"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <uuid> <name>",
		Short: "Resolve one login attempt and print the decision",
		Long: `Resolve a single login attempt the way the service would and print the
decision. The session server is queried unless the identifier is the offline
identity of the name. Nothing is remembered between runs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckWithDeps(cmd.Context(), cmd, args, nil)
		},
	}

	config.RegisterClientFlags(cmd.Flags())

	return cmd
}

// runCheckWithDeps resolves one attempt with injectable dependencies.
// If deps is nil, default implementations are used.
func runCheckWithDeps(ctx context.Context, cmd *cobra.Command, args []string, deps *CheckDeps) error {
	if deps == nil {
		deps = &CheckDeps{}
	}
	if deps.ConfigPathResolver == nil {
		deps.ConfigPathResolver = config.ResolvePath
	}
	if deps.ProfileCheckerFactory == nil {
		deps.ProfileCheckerFactory = defaultProfileChecker
	}
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid uuid %q: %w", args[0], err)
	}
	name := args[1]

	path, err := deps.ConfigPathResolver(configFile)
	if err != nil {
		return fmt.Errorf("failed to locate config file: %w", err)
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.Setup(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	gate, err := buildGate(gateParts{
		cfg:     cfg,
		cache:   verify.NewCache(cfg.Verify.CacheExpiry),
		logger:  logger,
		checker: deps.ProfileCheckerFactory,
	})
	if err != nil {
		return err
	}

	decision, resolveErr := gate.Resolve(ctx, id, name)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "uuid:     %s\n", id)
	fmt.Fprintf(out, "name:     %s\n", name)
	fmt.Fprintf(out, "offline:  %t\n", identity.IsOffline(id, name))
	fmt.Fprintf(out, "decision: %s\n", decision.Result)
	if decision.Message != "" {
		fmt.Fprintf(out, "message:  %s\n", decision.Message)
	}

	if resolveErr != nil {
		return fmt.Errorf("session server gave no answer: %w", resolveErr)
	}
	return nil
}
