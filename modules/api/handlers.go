package api

import (
	"errors"
	"log"

	"github.com/example/taskboard/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers holds the HTTP handlers for the task resource.
type Handlers struct {
	service *task.Service
	devMode bool
}

// NewHandlers creates handlers backed by the task service. devMode controls
// whether unexpected error detail is exposed in 500 responses.
func NewHandlers(service *task.Service, devMode bool) *Handlers {
	return &Handlers{service: service, devMode: devMode}
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

func respondError(c *fiber.Ctx, status int, message string, details any) error {
	return c.Status(status).JSON(Envelope{Success: false, Error: message, Details: details})
}

// fail maps a domain error to exactly one HTTP status: 400 for the
// input/validation class, 404 for not-found, 500 for anything unrecognized.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, task.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, err.Error(), nil)
	case errors.Is(err, task.ErrInvalidID):
		return respondError(c, fiber.StatusBadRequest, err.Error(), nil)
	case task.IsValidationError(err):
		var details any
		var ve *task.ValidationError
		if errors.As(err, &ve) {
			details = fiber.Map{"field": ve.Field, "reason": ve.Reason}
		}
		return respondError(c, fiber.StatusBadRequest, err.Error(), details)
	default:
		log.Printf("[api] Unexpected error: %v", err)
		var details any
		if h.devMode {
			details = err.Error()
		}
		return respondError(c, fiber.StatusInternalServerError, "internal server error", details)
	}
}

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.service.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, tasks)
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	t, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, t)
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	t, err := h.service.Create(c.Context(), task.CreateTaskInput{Title: req.Title})
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusCreated, t)
}

// UpdateTask handles PATCH /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	t, err := h.service.Update(c.Context(), c.Params("id"), task.UpdateTaskInput{
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, t)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetStats handles GET /tasks/stats.
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return respond(c, fiber.StatusOK, stats)
}

// NotFound is the catch-all for unmatched routes.
func (h *Handlers) NotFound(c *fiber.Ctx) error {
	return respondError(c, fiber.StatusNotFound, "route not found", nil)
}
