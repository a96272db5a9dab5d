// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package mojang

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mcsunnyside/onlinemodeverify/internal/identity"
)

// Client defaults.
const (
	// DefaultSessionURL is the public Mojang session server.
	DefaultSessionURL = "https://sessionserver.mojang.com"

	// DefaultTimeout bounds a single profile lookup, including the wait for
	// a rate limiter slot.
	DefaultTimeout = 10 * time.Second

	// DefaultRate is the sustained number of lookups per second.
	DefaultRate = 10.0

	// DefaultBurst is the number of lookups allowed back to back.
	DefaultBurst = 20
)

const (
	profilePath = "/session/minecraft/profile/"

	// maxDrainBytes caps how much of a response body is read before closing
	// so the connection can be reused.
	maxDrainBytes = 64 << 10

	tracerName = "github.com/mcsunnyside/onlinemodeverify/internal/mojang"
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	SessionURL string
	Timeout    time.Duration
	Rate       float64
	Burst      int

	// HTTPClient is used for requests. Defaults to a client without its own
	// timeout; Timeout is applied per request through the context.
	HTTPClient *http.Client

	// TracerProvider defaults to the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// Metrics may be nil.
	Metrics *Metrics
}

// Client looks up profiles on the session server. It is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
	metrics *Metrics
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.SessionURL, "/")
	if baseURL == "" {
		baseURL = DefaultSessionURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, oops.With("session_url", cfg.SessionURL).Errorf("session url must be http or https")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := cfg.Rate
	if limit <= 0 {
		limit = DefaultRate
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
		tracer:  tp.Tracer(tracerName),
		metrics: cfg.Metrics,
	}, nil
}

// HasProfile reports whether the session server knows a profile for id.
// It returns true for a purchased account and false for an unknown one.
// Outages, unexpected statuses and rate limiting are returned as errors
// carrying one of the Code* values.
func (c *Client) HasProfile(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "mojang.HasProfile",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("player.uuid", id.String())),
	)
	defer span.End()

	start := time.Now()
	found, outcome, err := c.lookup(ctx, id)
	c.metrics.observe(outcome, time.Since(start))

	span.SetAttributes(attribute.String("mojang.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return false, err
	}
	return found, nil
}

func (c *Client) lookup(ctx context.Context, id uuid.UUID) (bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return false, OutcomeRateLimited, oops.Code(CodeRateLimited).
			With("uuid", id.String()).
			Wrapf(err, "waiting for session server request slot")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+profilePath+identity.Compact(id), nil)
	if err != nil {
		return false, OutcomeUnreachable, oops.Code(CodeUnreachable).
			With("uuid", id.String()).
			Wrapf(err, "building session server request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, OutcomeUnreachable, oops.Code(CodeUnreachable).
			With("uuid", id.String()).
			Wrapf(err, "contacting session server")
	}
	defer func() { _ = resp.Body.Close() }()
	//nolint:errcheck // draining is best effort, the status code is already known
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	switch resp.StatusCode {
	case http.StatusOK:
		return true, OutcomeFound, nil
	case http.StatusNoContent:
		return false, OutcomeNotFound, nil
	default:
		return false, OutcomeUnexpected, oops.Code(CodeUnexpectedStatus).
			With("uuid", id.String()).
			With("status", resp.StatusCode).
			Errorf("session server returned unexpected status %d", resp.StatusCode)
	}
}
