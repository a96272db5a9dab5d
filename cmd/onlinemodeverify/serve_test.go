// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsunnyside/onlinemodeverify/internal/identity"
	"github.com/mcsunnyside/onlinemodeverify/internal/mojang"
	"github.com/mcsunnyside/onlinemodeverify/internal/observability"
	"github.com/mcsunnyside/onlinemodeverify/internal/prelogin"
	"github.com/mcsunnyside/onlinemodeverify/internal/verify"
)

// mockHookServer implements HookServer for testing.
type mockHookServer struct {
	startErr error
	started  chan struct{}
	stopped  atomic.Bool
}

func newMockHookServer() *mockHookServer {
	return &mockHookServer{started: make(chan struct{})}
}

func (m *mockHookServer) Start() (<-chan error, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	close(m.started)
	return make(chan error, 1), nil
}

func (m *mockHookServer) Stop(context.Context) error {
	m.stopped.Store(true)
	return nil
}

func (m *mockHookServer) Addr() string { return "127.0.0.1:0" }

func (m *mockHookServer) Ready() bool { return true }

// mockObservabilityServer implements ObservabilityServer for testing.
type mockObservabilityServer struct {
	startErr  error
	registry  *prometheus.Registry
	readiness observability.ReadinessChecker
	stopped   atomic.Bool
}

func (m *mockObservabilityServer) Start() (<-chan error, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return make(chan error, 1), nil
}

func (m *mockObservabilityServer) Stop(context.Context) error {
	m.stopped.Store(true)
	return nil
}

func (m *mockObservabilityServer) Addr() string { return "127.0.0.1:0" }

func (m *mockObservabilityServer) Registerer() prometheus.Registerer { return m.registry }

// newTestServeCmd returns a serve command with args parsed and output captured.
func newTestServeCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	configFile = ""
	t.Cleanup(func() { configFile = "" })

	cmd := NewServeCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, buf
}

func noConfigFile(string) (string, error) { return "", nil }

func TestRunServe_GracefulShutdown(t *testing.T) {
	cmd, buf := newTestServeCmd(t)

	hook := newMockHookServer()
	obs := &mockObservabilityServer{registry: prometheus.NewRegistry()}
	deps := &ServeDeps{
		ConfigPathResolver: noConfigFile,
		ProfileCheckerFactory: func(mojang.Config) (verify.ProfileChecker, error) {
			return &stubChecker{premium: true}, nil
		},
		HookServerFactory: func(string, *prelogin.Listener, time.Duration) HookServer { return hook },
		ObservabilityServerFactory: func(_ string, readiness observability.ReadinessChecker) ObservabilityServer {
			obs.readiness = readiness
			return obs
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runServeWithDeps(ctx, cmd, deps) }()

	select {
	case <-hook.started:
	case <-time.After(5 * time.Second):
		t.Fatal("hook server was not started")
	}
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down")
	}

	assert.True(t, hook.stopped.Load())
	assert.True(t, obs.stopped.Load())
	assert.True(t, obs.readiness(), "readiness should follow the hook server")
	assert.Contains(t, buf.String(), "onlinemodeverify started")
	assert.Contains(t, buf.String(), "shutdown complete")

	// Gate and client metrics were registered with the observability registry.
	families, err := obs.registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "onlinemodeverify_cache_entries")
}

func TestRunServe_HookStartFailure(t *testing.T) {
	cmd, _ := newTestServeCmd(t, "--metrics-addr=")

	hook := newMockHookServer()
	hook.startErr = errors.New("address in use")
	deps := &ServeDeps{
		ConfigPathResolver: noConfigFile,
		HookServerFactory:  func(string, *prelogin.Listener, time.Duration) HookServer { return hook },
	}

	err := runServeWithDeps(context.Background(), cmd, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start pre-login server")
}

func TestRunServe_ObservabilityStartFailureStopsHook(t *testing.T) {
	cmd, _ := newTestServeCmd(t)

	hook := newMockHookServer()
	obs := &mockObservabilityServer{registry: prometheus.NewRegistry(), startErr: errors.New("address in use")}
	deps := &ServeDeps{
		ConfigPathResolver: noConfigFile,
		HookServerFactory:  func(string, *prelogin.Listener, time.Duration) HookServer { return hook },
		ObservabilityServerFactory: func(string, observability.ReadinessChecker) ObservabilityServer {
			return obs
		},
	}

	err := runServeWithDeps(context.Background(), cmd, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start observability server")
	assert.True(t, hook.stopped.Load(), "hook server should be stopped during cleanup")
}

func TestRunServe_InvalidConfig(t *testing.T) {
	cmd, _ := newTestServeCmd(t, "--log-format=xml")

	err := runServeWithDeps(context.Background(), cmd, &ServeDeps{ConfigPathResolver: noConfigFile})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunServe_ConfigPathError(t *testing.T) {
	cmd, _ := newTestServeCmd(t)

	err := runServeWithDeps(context.Background(), cmd, &ServeDeps{
		ConfigPathResolver: func(string) (string, error) { return "", errors.New("no home") },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to locate config file")
}

func TestRunServe_ProfileCheckerError(t *testing.T) {
	cmd, _ := newTestServeCmd(t, "--metrics-addr=")

	err := runServeWithDeps(context.Background(), cmd, &ServeDeps{
		ConfigPathResolver: noConfigFile,
		ProfileCheckerFactory: func(mojang.Config) (verify.ProfileChecker, error) {
			return nil, errors.New("bad url")
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create session server client")
}

func TestRunServe_ReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen-addr: 127.0.0.1:0\n  metrics-addr: \"\"\nmojang:\n  timeout: 45s\n"), 0o600))

	cmd, _ := newTestServeCmd(t)

	var gotAddr string
	var gotTimeout time.Duration
	hook := newMockHookServer()
	deps := &ServeDeps{
		ConfigPathResolver: func(string) (string, error) { return path, nil },
		HookServerFactory: func(addr string, _ *prelogin.Listener, resolveTimeout time.Duration) HookServer {
			gotAddr = addr
			gotTimeout = resolveTimeout
			return hook
		},
		ObservabilityServerFactory: func(string, observability.ReadinessChecker) ObservabilityServer {
			t.Error("observability server must not be created when metrics-addr is empty")
			return &mockObservabilityServer{registry: prometheus.NewRegistry()}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runServeWithDeps(ctx, cmd, deps) }()

	<-hook.started
	cancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, "127.0.0.1:0", gotAddr)
	assert.Equal(t, 45*time.Second, gotTimeout, "hook server is told the session server timeout")
}

// startedHookServer signals once the wrapped server has bound its address.
type startedHookServer struct {
	*prelogin.Server
	started chan struct{}
}

func (s *startedHookServer) Start() (<-chan error, error) {
	errCh, err := s.Server.Start()
	if err == nil {
		close(s.started)
	}
	return errCh, err
}

func TestRunServe_EndToEnd(t *testing.T) {
	cmd, _ := newTestServeCmd(t, "--listen-addr=127.0.0.1:0", "--metrics-addr=")

	checker := &stubChecker{premium: true}
	hook := &startedHookServer{started: make(chan struct{})}
	deps := &ServeDeps{
		ConfigPathResolver: noConfigFile,
		ProfileCheckerFactory: func(mojang.Config) (verify.ProfileChecker, error) {
			return checker, nil
		},
		HookServerFactory: func(addr string, listener *prelogin.Listener, resolveTimeout time.Duration) HookServer {
			hook.Server = prelogin.NewServer(addr, listener, resolveTimeout)
			return hook
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runServeWithDeps(ctx, cmd, deps) }()
	defer func() {
		cancel()
		require.NoError(t, <-errCh)
	}()

	select {
	case <-hook.started:
	case <-time.After(5 * time.Second):
		t.Fatal("pre-login server was not started")
	}
	addr := hook.Addr()

	post := func(uid, name string) map[string]string {
		t.Helper()
		body := `{"uuid":"` + uid + `","name":"` + name + `"}`
		resp, err := http.Post("http://"+addr+prelogin.Path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	premium := post("069a79f4-44e9-4726-a5be-fca90e38aaf5", "Notch")
	assert.Equal(t, "ALLOWED", premium["result"])

	offline := post(identity.OfflineUUID("Steve").String(), "Steve")
	assert.Equal(t, "KICK_OTHER", offline["result"])
	assert.Equal(t, "§cThis server only allows premium Minecraft accounts.", offline["message"])

	assert.Equal(t, int32(1), checker.calls.Load(), "offline identity must not reach the session server")
}
