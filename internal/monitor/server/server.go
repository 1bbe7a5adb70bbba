// Package server exposes the session state over a JSON HTTP API.
package server

import (
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/shapeflow/monitor/internal/monitor/logger"
	"github.com/shapeflow/monitor/internal/monitor/session"
)

// Server wraps the fiber app serving the dashboard API.
type Server struct {
	app  *fiber.App
	log  *zap.SugaredLogger
	addr string
}

// New builds the app with its middleware and routes registered.
func New(sess *session.Session, addr string) *Server {
	app := fiber.New(fiber.Config{
		AppName:       "shapeflow-monitor",
		CaseSensitive: true,
		ErrorHandler:  errorHandler,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	registerRoutes(app, newHandler(sess))

	return &Server{
		app:  app,
		log:  logger.Named("server"),
		addr: addr,
	}
}

// Listen blocks serving requests until Shutdown or a listener error.
func (s *Server) Listen() error {
	s.log.Infow("HTTP API listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	s.log.Infow("HTTP API shutting down")
	return s.app.Shutdown()
}

// App returns the underlying fiber app, used by tests to issue
// in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

func registerRoutes(app *fiber.App, h *handler) {
	app.Get("/healthz", h.GetHealth)

	api := app.Group("/api")
	api.Get("/logs", h.GetLogs)
	api.Post("/logs/switch", h.PostSwitchLog)
	api.Post("/logs/upload", h.PostUploadLog)
	api.Get("/filters", h.GetFilters)
	api.Get("/alerts", h.GetAlerts)
	api.Get("/alerts/unread", h.GetUnreadAlerts)
	api.Post("/alerts/ack", h.PostAcknowledgeAlerts)
	api.Get("/graphs/:type", h.GetGraph)
	api.Get("/table", h.GetTable)
	api.Get("/bounds", h.GetBounds)
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code == fiber.StatusInternalServerError {
		logger.Named("server").Errorw("Unhandled error", "path", ctx.Path(), "error", err)
	}
	return ctx.Status(code).JSON(fiber.Map{"error": err.Error()})
}
