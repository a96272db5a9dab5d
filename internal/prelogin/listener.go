// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package prelogin

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/mcsunnyside/onlinemodeverify/internal/verify"
)

// Resolver decides login attempts. *verify.Gate implements it.
type Resolver interface {
	Resolve(ctx context.Context, id uuid.UUID, name string) (verify.Decision, error)
}

// Listener applies gate decisions to pre-login events.
type Listener struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewListener creates a Listener with a no-op logger.
func NewListener(resolver Resolver) (*Listener, error) {
	return NewListenerWithLogger(resolver, slog.New(slog.DiscardHandler))
}

// NewListenerWithLogger creates a Listener with the provided logger.
// Returns an error if any dependency is nil.
func NewListenerWithLogger(resolver Resolver, logger *slog.Logger) (*Listener, error) {
	if resolver == nil {
		return nil, oops.Errorf("resolver is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Listener{resolver: resolver, logger: logger}, nil
}

// OnPreLogin resolves ev and disallows it when the gate rejects the player.
// Events already refused by someone else are left untouched.
func (l *Listener) OnPreLogin(ctx context.Context, ev Event) {
	if ev.Result() != ResultAllowed {
		return
	}

	// Resolution failures are logged by the gate and surface here only as a
	// RejectServiceUnavailable decision.
	decision, _ := l.resolver.Resolve(ctx, ev.UniqueID(), ev.Name()) //nolint:errcheck // see above
	if !decision.Allowed() {
		ev.Disallow(ResultKickOther, decision.Message)
	}

	attrs := []any{
		"uuid", ev.UniqueID().String(),
		"name", ev.Name(),
		"decision", decision.Result.String(),
	}
	if a, ok := ev.(*Attempt); ok {
		attrs = append(attrs, "attempt_id", a.ID().String())
	}
	l.logger.InfoContext(ctx, "pre-login decided", attrs...)
}
