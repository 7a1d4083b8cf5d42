package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/room-relay/modules/broadcast"
	"github.com/example/room-relay/modules/relay"
)

// Module serves the WebSocket endpoint and the read-only REST surface using
// the Fiber framework.
type Module struct {
	app    *fiber.App
	addr   string
	relay  *relay.Module
	hub    *broadcast.Hub
	logger *slog.Logger
}

// NewModule creates a new API module listening on addr.
func NewModule(addr string, relayModule *relay.Module) *Module {
	return &Module{
		addr:   addr,
		relay:  relayModule,
		logger: slog.Default(),
	}
}

// SetHub injects the broadcast hub. Done manually in main because the hub is
// not exposed via the service container.
func (m *Module) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Start initializes and starts the HTTP/WebSocket server.
func (m *Module) Start(_ context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "room-relay",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	m.registerRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	m.logger.Info("API server started", "addr", m.addr)
	return nil
}

// Stop gracefully shuts down the server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.logger.Info("API server stopped")
	return nil
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.healthHandler)

	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// Read-only room lookup. There is deliberately no listing endpoint: the
	// key is the only thing gating access to a room.
	api := m.app.Group("/api/v1")
	api.Get("/rooms/:key", m.getRoom)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"details": fiber.Map{
			"connected_clients": m.hub.ClientCount(),
			"active_rooms":      m.relay.RoomCount(),
		},
	})
}

// getRoom handles GET /api/v1/rooms/:key.
func (m *Module) getRoom(c *fiber.Ctx) error {
	info, ok := m.relay.Room(c.Params("key"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}
	return c.JSON(info)
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	m.logger.Error("HTTP error", "code", code, "message", message, "error", err)

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
