package api

import (
	"errors"
	"log"
	"strconv"

	domain "github.com/example/todo-app/domain/todo"
	"github.com/example/todo-app/modules/todo"
	"github.com/gofiber/fiber/v2"
)

const (
	msgNotFound      = "Todo not found"
	msgTitleRequired = "Title is required"
	msgInvalidBody   = "Invalid request body"
	msgDeleted       = "Todo deleted successfully"
)

// Handlers serves the todo REST endpoints over a TodoPort.
type Handlers struct {
	todos todo.TodoPort
}

// NewHandlers creates handlers backed by port.
func NewHandlers(port todo.TodoPort) *Handlers {
	return &Handlers{todos: port}
}

// Register mounts the todo routes on router.
func (h *Handlers) Register(router fiber.Router) {
	todos := router.Group("/todos")
	todos.Get("/", h.listTodos)
	todos.Post("/", h.createTodo)
	todos.Get("/:id", h.getTodo)
	todos.Put("/:id", h.replaceTodo)
	todos.Patch("/:id/toggle", h.toggleTodo)
	todos.Delete("/:id", h.deleteTodo)
}

// listTodos handles GET /api/todos.
func (h *Handlers) listTodos(c *fiber.Ctx) error {
	list, err := h.todos.List(c.UserContext())
	if err != nil {
		return writeError(c, err, "Failed to fetch todos")
	}

	resp := make([]TodoResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toTodoResponse(&list[i]))
	}
	return c.JSON(resp)
}

// getTodo handles GET /api/todos/:id.
func (h *Handlers) getTodo(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	t, err := h.todos.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "Failed to fetch todo")
	}
	return c.JSON(toTodoResponse(t))
}

// createTodo handles POST /api/todos.
func (h *Handlers) createTodo(c *fiber.Ctx) error {
	var req CreateTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	if req.Title == "" {
		return badRequest(c, msgTitleRequired)
	}

	t, err := h.todos.Create(c.UserContext(), req.Title, stringOrEmpty(req.Description))
	if err != nil {
		return writeError(c, err, "Failed to create todo")
	}
	return c.Status(fiber.StatusCreated).JSON(toTodoResponse(t))
}

// replaceTodo handles PUT /api/todos/:id. The title is validated before
// the todo is looked up.
func (h *Handlers) replaceTodo(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	var req ReplaceTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	if req.Title == "" {
		return badRequest(c, msgTitleRequired)
	}

	completed := req.Completed != nil && *req.Completed
	t, err := h.todos.Replace(c.UserContext(), id, req.Title, stringOrEmpty(req.Description), completed)
	if err != nil {
		return writeError(c, err, "Failed to update todo")
	}
	return c.JSON(toTodoResponse(t))
}

// toggleTodo handles PATCH /api/todos/:id/toggle.
func (h *Handlers) toggleTodo(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	t, err := h.todos.Toggle(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "Failed to toggle todo")
	}
	return c.JSON(toTodoResponse(t))
}

// deleteTodo handles DELETE /api/todos/:id.
func (h *Handlers) deleteTodo(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.todos.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err, "Failed to delete todo")
	}
	return c.JSON(MessageResponse{Message: msgDeleted})
}

// parseID reads the :id parameter. Ids that are not positive integers can
// never match a row.
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeError maps domain errors to HTTP responses. Unexpected errors are
// logged and answered with the generic failure message only.
func writeError(c *fiber.Ctx, err error, failure string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFound(c)
	case errors.Is(err, domain.ErrValidation):
		return badRequest(c, msgTitleRequired)
	default:
		log.Printf("[api] %s: %v", failure, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: failure})
	}
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: msgNotFound})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}
