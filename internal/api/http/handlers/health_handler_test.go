package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

func performHealth(t *testing.T, handler fiber.Handler) (*http.Response, map[string]any) {
	t.Helper()

	app := fiber.New()
	app.Get("/health", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealth_Live(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("estate-service", "1.2.3", nil, nil, nil)
	resp, body := performHealth(t, h.Live)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])
	assert.Equal(t, "estate-service", body["service"])
	assert.Equal(t, "1.2.3", body["version"])
}

func TestHealth_ReadyReportsEveryDependency(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("estate-service", "test", nil, nil, &stubPinger{err: errors.New("bucket unreachable")})
	resp, body := performHealth(t, h.Ready)

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errObj["code"])

	details, ok := errObj["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "postgres")
	assert.Contains(t, details, "redis")
	assert.Equal(t, "bucket unreachable", details["imageStore"])
}

func TestHealth_ReadyProbesImageStore(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("estate-service", "test", nil, nil, &stubPinger{})
	resp, body := performHealth(t, h.Ready)

	// postgres and redis are unconfigured here, so readiness still fails,
	// but the image store probe must have run and passed.
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "ok", details["imageStore"])
}
