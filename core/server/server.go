package server

import (
	"collection-engine/core/logger"
	"collection-engine/core/middleware/auth"
	"collection-engine/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// New creates the Fiber app with the standard middleware stack: ray IDs,
// request logging and API key authentication, in that order.
func New(cfg Config, l *zap.Logger) *fiber.App {
	if l == nil {
		l = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit(),
	})

	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		rl := logger.WithRayID(l, c)
		rl.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			rl.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Use(auth.New(auth.Config{ApiKey: cfg.ApiKey}))
	return app
}
