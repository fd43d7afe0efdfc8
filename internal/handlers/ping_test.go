package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/chatrouter/chatrouter/internal/healthcheck"
)

func doRequest(t *testing.T, h *PingHandler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.Register(e)
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	h := NewPingHandler(nil, "test", nil)
	rec := doRequest(t, h, http.MethodGet, "/ping")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestHealthWithoutChecks(t *testing.T) {
	h := NewPingHandler(nil, "test", nil)
	rec := doRequest(t, h, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.Contains(t, rec.Body.String(), "chatrouter")
}

func TestHealthReportsDependencies(t *testing.T) {
	checks := healthcheck.NewRegistry(0,
		healthcheck.CheckFunc{CheckName: "postgres", Fn: func(ctx context.Context) error { return nil }},
	)
	h := NewPingHandler(nil, "test", checks)
	rec := doRequest(t, h, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres"`)
}

func TestHealthDegradedOnFailingDependency(t *testing.T) {
	checks := healthcheck.NewRegistry(0,
		healthcheck.CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error { return errors.New("down") }},
	)
	h := NewPingHandler(nil, "test", checks)
	rec := doRequest(t, h, http.MethodGet, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestHealthHead(t *testing.T) {
	h := NewPingHandler(nil, "test", nil)
	rec := doRequest(t, h, http.MethodHead, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
}
