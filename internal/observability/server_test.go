// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability_test

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/internal/observability"
)

func startTestServer(t *testing.T, ready observability.ReadinessChecker) *observability.Server {
	t.Helper()

	server := observability.NewServer("127.0.0.1:0", ready)
	_, err := server.Start()
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func TestServer_HealthProbes(t *testing.T) {
	var ready atomic.Bool
	server := startTestServer(t, ready.Load)

	resp, body := get(t, "http://"+server.Addr()+"/healthz/liveness")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)

	resp, _ = get(t, "http://"+server.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready.Store(true)
	resp, _ = get(t, "http://"+server.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server := startTestServer(t, nil)

	server.Metrics().AuthAttemptsTotal.WithLabelValues("sign_in", "ok").Inc()
	observability.RecordAuthRetry("sign_in")
	observability.RecordSessionChange("signed_in")

	resp, body := get(t, "http://"+server.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "authgate_auth_attempts_total")
	assert.Contains(t, body, "authgate_auth_retries_total")
	assert.Contains(t, body, "authgate_session_changes_total")
}

func TestServer_DoubleStart(t *testing.T) {
	server := startTestServer(t, nil)

	_, err := server.Start()
	require.Error(t, err)
}

func TestServer_StopIdempotent(t *testing.T) {
	server := observability.NewServer("127.0.0.1:0", nil)
	_, err := server.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx), "second stop is a no-op")
}
