// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcsunnyside/onlinemodeverify/internal/config"
	"github.com/mcsunnyside/onlinemodeverify/internal/mojang"
	"github.com/mcsunnyside/onlinemodeverify/internal/verify"
)

// gateParts are the pieces buildGate wires together.
type gateParts struct {
	cfg     *config.Config
	cache   *verify.Cache
	logger  *slog.Logger
	reg     prometheus.Registerer // nil disables metrics
	checker func(mojang.Config) (verify.ProfileChecker, error)
}

// buildGate creates the session server client and the gate in front of it.
func buildGate(p gateParts) (*verify.Gate, error) {
	clientCfg := mojang.Config{
		SessionURL: p.cfg.Mojang.SessionURL,
		Timeout:    p.cfg.Mojang.Timeout,
		Rate:       p.cfg.Mojang.Rate,
		Burst:      p.cfg.Mojang.Burst,
	}
	var gateMetrics *verify.Metrics
	if p.reg != nil {
		clientCfg.Metrics = mojang.NewMetrics(p.reg)
		gateMetrics = verify.NewMetrics(p.reg, p.cache)
	}

	checker, err := p.checker(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session server client: %w", err)
	}

	gate, err := verify.NewGate(p.cache, checker, verify.Options{
		Messages: verify.Messages{
			NotPremium:  p.cfg.Messages.NotPremiumPlayer,
			ServiceDown: p.cfg.Messages.MojangAPIDown,
		},
		Coalesce: p.cfg.Verify.Coalesce,
		Logger:   p.logger,
		Metrics:  gateMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gate: %w", err)
	}
	return gate, nil
}
