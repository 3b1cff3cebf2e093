package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wichananm65/user-records/internal/config"
	"github.com/wichananm65/user-records/internal/metrics"
)

const requestIDKey = "requestid"

// RouteRegistrar is implemented by handlers that mount their own routes.
type RouteRegistrar interface {
	RegisterRoutes(router fiber.Router)
}

// New assembles the Fiber app: middleware, health and metrics endpoints and
// the routes of every registrar.
func New(cfg config.Config, logger zerolog.Logger, registry *metrics.Registry, registrars ...RouteRegistrar) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "user-records",
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	setupCORS(app, cfg.AllowOrigins)
	app.Use(requestLogger(logger))
	app.Use(registry.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", registry.Handler())

	for _, r := range registrars {
		r.RegisterRoutes(app)
	}

	return app
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
}

func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		event := logger.Info()
		if status >= fiber.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.OriginalURL()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Interface("request_id", c.Locals(requestIDKey)).
			Msg("request handled")

		return err
	}
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
