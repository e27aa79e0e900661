package server_test

import (
	"net/http/httptest"
	"testing"

	"collection-engine/core/middleware/auth"
	"collection-engine/core/middleware/rayid"
	"collection-engine/core/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Middleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := server.New(server.Config{ApiKey: "secret"}, zap.New(core))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(rayid.HeaderName))

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(auth.HeaderName, "secret")
	req.Header.Set(rayid.HeaderName, "ray-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ray-1", resp.Header.Get(rayid.HeaderName))

	started := logs.FilterMessage("Request started").FilterField(zap.String("ray_id", "ray-1"))
	assert.Equal(t, 1, started.Len())
}
