package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos-suite/pos-backend/internal/dto"
)

func TestHealthCheckOK(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler("test", func() error { return nil })
	app.Get("/health", h.Check)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "ok", parsed.Status)
	assert.Equal(t, "ok", parsed.DB)
	assert.Equal(t, "test", parsed.Environment)
}

func TestHealthCheckDBDown(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler("test", func() error { return errors.New("connection refused") })
	app.Get("/health", h.Check)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "degraded", parsed.Status)
	assert.Contains(t, parsed.DB, "unhealthy")
}
