// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcsunnyside/onlinemodeverify/internal/mojang"
	"github.com/mcsunnyside/onlinemodeverify/internal/observability"
	"github.com/mcsunnyside/onlinemodeverify/internal/prelogin"
	"github.com/mcsunnyside/onlinemodeverify/internal/verify"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ConfigPathResolver picks the config file for the --config value.
	// Default: config.ResolvePath
	ConfigPathResolver func(explicit string) (string, error)

	// ProfileCheckerFactory creates the session server client.
	// Default: mojang.NewClient
	ProfileCheckerFactory func(cfg mojang.Config) (verify.ProfileChecker, error)

	// HookServerFactory creates the pre-login HTTP server.
	// Default: prelogin.NewServer
	HookServerFactory func(addr string, listener *prelogin.Listener, resolveTimeout time.Duration) HookServer

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// CheckDeps contains injectable dependencies for the check command.
type CheckDeps struct {
	// ConfigPathResolver picks the config file for the --config value.
	// Default: config.ResolvePath
	ConfigPathResolver func(explicit string) (string, error)

	// ProfileCheckerFactory creates the session server client.
	// Default: mojang.NewClient
	ProfileCheckerFactory func(cfg mojang.Config) (verify.ProfileChecker, error)
}

// HookServer interface wraps the methods used from prelogin.Server.
type HookServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Ready() bool
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Registerer() prometheus.Registerer
}

func defaultProfileChecker(cfg mojang.Config) (verify.ProfileChecker, error) {
	return mojang.NewClient(cfg)
}
