// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package verify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"

	"github.com/mcsunnyside/onlinemodeverify/internal/identity"
	"github.com/mcsunnyside/onlinemodeverify/pkg/errutil"
)

// ProfileChecker asks the session server whether an account is premium.
type ProfileChecker interface {
	// HasProfile returns true for a premium account and false for an unknown
	// one. Any error means no answer could be obtained.
	HasProfile(ctx context.Context, id uuid.UUID) (bool, error)
}

// Options configures a Gate.
type Options struct {
	Messages Messages

	// Coalesce shares one session server lookup between concurrent login
	// attempts for the same identifier.
	Coalesce bool

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *Metrics
}

// Gate admits or rejects login attempts. It is safe for concurrent use.
type Gate struct {
	cache    *Cache
	checker  ProfileChecker
	messages Messages
	coalesce bool
	flights  singleflight.Group
	logger   *slog.Logger
	metrics  *Metrics
}

// NewGate creates a Gate that owns cache and consults checker on misses.
// Returns an error if any required dependency is nil.
func NewGate(cache *Cache, checker ProfileChecker, opts Options) (*Gate, error) {
	if cache == nil {
		return nil, oops.Errorf("cache is required")
	}
	if checker == nil {
		return nil, oops.Errorf("profile checker is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		cache:    cache,
		checker:  checker,
		messages: opts.Messages,
		coalesce: opts.Coalesce,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// Resolve decides whether the player identified by id and name may join.
//
// The returned error is non-nil only together with RejectServiceUnavailable
// and describes why the session server gave no answer. The outcome of such
// an attempt is not cached.
func (g *Gate) Resolve(ctx context.Context, id uuid.UUID, name string) (Decision, error) {
	if premium, ok := g.cache.Get(id); ok {
		g.metrics.recordLookup(LookupHit)
		return g.decide(premium), nil
	}
	g.metrics.recordLookup(LookupMiss)

	if identity.IsOffline(id, name) {
		g.metrics.recordOfflineShortcut()
		g.cache.Set(id, false)
		return g.decide(false), nil
	}

	premium, err := g.lookup(ctx, id)
	if err != nil {
		err = oops.Wrapf(err, "verifying account %s", name)
		if ctx.Err() != nil {
			g.logger.DebugContext(ctx, "login attempt abandoned before verification finished",
				"uuid", id.String(), "name", name, "error", err.Error())
		} else {
			errutil.LogWarn(ctx, g.logger, "cannot contact session server", err,
				"uuid", id.String(), "name", name)
		}
		g.metrics.recordDecision(RejectServiceUnavailable)
		return Decision{Result: RejectServiceUnavailable, Message: g.messages.ServiceDown}, err
	}
	return g.decide(premium), nil
}

// Forget drops the cached outcome for id so the next attempt resolves again.
func (g *Gate) Forget(id uuid.UUID) {
	g.cache.Delete(id)
}

func (g *Gate) decide(premium bool) Decision {
	d := Decision{Result: Admit}
	if !premium {
		d = Decision{Result: RejectNotPremium, Message: g.messages.NotPremium}
	}
	g.metrics.recordDecision(d.Result)
	return d
}

func (g *Gate) lookup(ctx context.Context, id uuid.UUID) (bool, error) {
	if !g.coalesce {
		return g.fetch(ctx, id)
	}

	// The shared lookup must not die with whichever caller started it.
	ch := g.flights.DoChan(id.String(), func() (any, error) {
		return g.fetch(context.WithoutCancel(ctx), id)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		premium, _ := res.Val.(bool)
		return premium, nil
	case <-ctx.Done():
		return false, oops.Wrapf(ctx.Err(), "waiting for session server")
	}
}

// fetch asks the session server and caches a definite answer.
func (g *Gate) fetch(ctx context.Context, id uuid.UUID) (bool, error) {
	premium, err := g.checker.HasProfile(ctx, id)
	if err != nil {
		return false, err
	}
	g.cache.Set(id, premium)
	return premium, nil
}
