package todo

import (
	"context"

	domain "github.com/example/todo-app/domain/todo"
)

// Outcome classifies a request-reply result so error kinds survive the
// message hop between modules.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeInvalid  Outcome = "invalid"
)

// ListRequest is the request for listing todos.
type ListRequest struct{}

// ListResponse is the response for listing todos.
type ListResponse struct {
	Todos []domain.Todo `json:"todos"`
	Total int           `json:"total"`
}

// GetRequest is the request for getting a todo.
type GetRequest struct {
	ID int64 `json:"id"`
}

// CreateRequest is the request for creating a todo.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ReplaceRequest overwrites every mutable field of a todo.
type ReplaceRequest struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// ToggleRequest is the request for flipping a todo's completed flag.
type ToggleRequest struct {
	ID int64 `json:"id"`
}

// DeleteRequest is the request for deleting a todo.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// TodoReply carries a single todo or the reason there is none.
type TodoReply struct {
	Todo    *domain.Todo `json:"todo,omitempty"`
	Outcome Outcome      `json:"outcome"`
	Error   string       `json:"error,omitempty"`
}

// DeleteReply is the response for deleting a todo.
type DeleteReply struct {
	Deleted bool    `json:"deleted"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// TodoPort defines the todo operations available to driving adapters
// such as the HTTP API. Implementations return domain.ErrNotFound and
// domain.ErrValidation for the corresponding failures.
type TodoPort interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Get(ctx context.Context, id int64) (*domain.Todo, error)
	Create(ctx context.Context, title, description string) (*domain.Todo, error)
	Replace(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error)
	Toggle(ctx context.Context, id int64) (*domain.Todo, error)
	Delete(ctx context.Context, id int64) error
}
