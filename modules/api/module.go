package api

import (
	"context"
	"fmt"
	"log"
	"os"

	taskmod "github.com/example/taskboard/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module exposes the task service as resource endpoints.
type Module struct {
	app        *fiber.App
	handlers   *Handlers
	taskModule *taskmod.Module
	port       string
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module configured from the environment.
func NewModule() *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &Module{port: port}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// SetTaskModule injects the task module dependency.
func (m *Module) SetTaskModule(tm *taskmod.Module) {
	m.taskModule = tm
}

// Start builds the Fiber app, mounts the task routes and starts listening.
func (m *Module) Start(_ context.Context) error {
	if m.taskModule == nil {
		return fmt.Errorf("task module not set")
	}
	service := m.taskModule.Service()
	if service == nil {
		return fmt.Errorf("task service not available")
	}

	devMode := os.Getenv("APP_ENV") == "development"
	m.handlers = NewHandlers(service, devMode)

	m.app = fiber.New(fiber.Config{
		AppName:               "taskboard",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: frontendOrigin(),
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	m.app.Get("/health", m.healthHandler)
	RegisterRoutes(m.app, m.handlers)

	go func() {
		addr := ":" + m.port
		log.Printf("[api] Starting HTTP server on %s", addr)
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	return nil
}

// RegisterRoutes mounts the task resource routes on app. The stats route is
// registered before the :id route so "stats" is never treated as a task id.
// The catch-all 404 goes last.
func RegisterRoutes(app *fiber.App, h *Handlers) {
	tasks := app.Group("/tasks")
	tasks.Get("/", h.ListTasks)
	tasks.Get("/stats", h.GetStats)
	tasks.Get("/:id", h.GetTask)
	tasks.Post("/", h.CreateTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)

	app.Use(h.NotFound)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"details": fiber.Map{
			"module": "api",
			"port":   m.port,
		},
	})
}

// Stop shuts down the HTTP server gracefully.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// errorHandler handles errors escaping Fiber routes.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(Envelope{Success: false, Error: message})
}

func frontendOrigin() string {
	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		return origin
	}
	return "*"
}
