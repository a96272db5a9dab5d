// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mcsunnyside/onlinemodeverify/internal/config"
	"github.com/mcsunnyside/onlinemodeverify/internal/logging"
	"github.com/mcsunnyside/onlinemodeverify/internal/observability"
	"github.com/mcsunnyside/onlinemodeverify/internal/prelogin"
	"github.com/mcsunnyside/onlinemodeverify/internal/verify"
)

const (
	serviceName     = "onlinemodeverify"
	shutdownTimeout = 5 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pre-login verification service",
		Long: `Run the pre-login verification service. Game servers post every login
attempt to the pre-login endpoint and kick the player when the answer is
KICK_OTHER. Metrics and health probes are served on the metrics address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	config.RegisterServeFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps runs the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.ConfigPathResolver == nil {
		deps.ConfigPathResolver = config.ResolvePath
	}
	if deps.ProfileCheckerFactory == nil {
		deps.ProfileCheckerFactory = defaultProfileChecker
	}
	if deps.HookServerFactory == nil {
		deps.HookServerFactory = func(addr string, listener *prelogin.Listener, resolveTimeout time.Duration) HookServer {
			return prelogin.NewServer(addr, listener, resolveTimeout)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := deps.ConfigPathResolver(configFile)
	if err != nil {
		return fmt.Errorf("failed to locate config file: %w", err)
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	logger.Info("starting onlinemodeverify",
		"config_file", path,
		"listen_addr", cfg.Server.ListenAddr,
		"session_url", cfg.Mojang.SessionURL,
		"cache_expiry", cfg.Verify.CacheExpiry,
		"coalesce", cfg.Verify.Coalesce,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The hook server is assigned before either server starts, so the
	// readiness closure never observes it half-built.
	var hook HookServer
	var obsServer ObservabilityServer
	var reg prometheus.Registerer
	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, func() bool {
			return hook != nil && hook.Ready()
		})
		reg = obsServer.Registerer()
	}

	cache := verify.NewCache(cfg.Verify.CacheExpiry)
	cache.Start()
	defer cache.Stop()

	gate, err := buildGate(gateParts{
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
		reg:     reg,
		checker: deps.ProfileCheckerFactory,
	})
	if err != nil {
		return err
	}

	listener, err := prelogin.NewListenerWithLogger(gate, logger)
	if err != nil {
		return fmt.Errorf("failed to create pre-login listener: %w", err)
	}

	hook = deps.HookServerFactory(cfg.Server.ListenAddr, listener, cfg.Mojang.Timeout)
	hookErrChan, err := hook.Start()
	if err != nil {
		return fmt.Errorf("failed to start pre-login server: %w", err)
	}
	// Monitor hook server errors in background - cancel context on error
	go monitorServerErrors(ctx, cancel, hookErrChan, "prelogin")

	logger.Info("pre-login server started", "addr", hook.Addr(), "path", prelogin.Path)

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if stopErr := hook.Stop(shutdownCtx); stopErr != nil {
				logger.Warn("failed to stop pre-login server during cleanup", "error", stopErr)
			}
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		// Monitor observability server errors - cancel context on error
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("onlinemodeverify started")

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := hook.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping pre-login server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete", "cached_outcomes", cache.Len())
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
