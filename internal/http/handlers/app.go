package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"storefront/internal/config"
	applog "storefront/internal/log"
)

const (
	// multipart framing and text fields on top of the largest accepted file
	bodySlack = 1 << 20
	// request ceiling when ASSET_MAX_BYTES is 0 (no asset cap)
	uncappedBodyLimit = 1 << 30
)

// NewApp builds the HTTP surface: middleware, static files and routes.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	bodyLimit := uncappedBodyLimit
	if cfg.AssetMaxBytes > 0 {
		bodyLimit = int(cfg.AssetMaxBytes) + bodySlack
	}

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
		Output: applog.Writer(),
	}))
	// uploaded pictures are embedded by other origins
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "X-Product-ID",
	}))
	if cfg.RateLimitPerMin > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitPerMin,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return strings.HasPrefix(p, "/public/") || p == "/healthz"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.limit.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests")
			},
		}))
	}

	// ---------- Static assets ----------
	applog.Info(nil, "static.mount", map[string]any{"prefix": "/public", "dir": cfg.PublicDir})
	app.Static("/public", cfg.PublicDir, fiber.Static{Browse: false})

	// ---------- Routes ----------
	product := app.Group("/product")
	product.Get("/list", deps.ProductHandler.List)
	product.Post("/create", deps.ProductHandler.Create)
	product.Put("/update", deps.ProductHandler.Update)
	product.Delete("/delete", deps.ProductHandler.Delete)

	// Health & 404
	app.Get("/healthz", deps.HealthHandler.Check)
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("Not found")
	})

	return app
}

// ErrorHandler keeps internal detail out of responses. Client errors raised
// by fiber itself (oversized body, bad method) keep their status and message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
	}
	applog.Info(c, "request.reject", map[string]any{"error": err.Error()})
	return c.Status(code).SendString(fe.Message)
}
