// Package app assembles the Fiber application: middleware, routes and the
// JSON error fallbacks.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/models"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Options configures New.
type Options struct {
	AuthService *services.AuthService
	PostService *services.PostService
	Logger      *slog.Logger
	// AccessLog receives one line per request. Nil disables it.
	AccessLog io.Writer
}

// New builds the HTTP surface under /api/v1.
func New(opts Options) *fiber.App {
	log := opts.Logger

	app := fiber.New(fiber.Config{
		AppName:               "blogapi",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error("panic recovered",
				slog.String("path", c.Path()),
				slog.String("panic", fmt.Sprint(e)),
			)
		},
	}))
	app.Use(requestid.New())
	if opts.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
			Output: opts.AccessLog,
		}))
	}
	app.Use(cors.New())

	// --- Health Check Endpoint ---
	app.Get("/", health)

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", health)

	requireAuth := middleware.AuthRequired(opts.AuthService, log)
	handlers.NewAuthHandler(opts.AuthService, log).RegisterRoutes(apiV1, requireAuth)
	handlers.NewPostHandler(opts.PostService, log).RegisterRoutes(apiV1, requireAuth)

	return app
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "It's working"})
}

// errorHandler turns unmatched routes into 404 and every other unhandled
// error, panics included, into the generic 500 body.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			message := fe.Message
			if fe.Code == fiber.StatusNotFound {
				message = "Not found"
			}
			return c.Status(fe.Code).JSON(fiber.Map{"error": message})
		}

		log.Error("unhandled error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": models.InternalMessage})
	}
}
