// Package events defines the todo lifecycle events published on the mono event bus.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TodoCreatedEvent is emitted when a new todo is created.
type TodoCreatedEvent struct {
	TodoID      int64     `json:"todo_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TodoCreatedV1 is the typed event definition for todo creation.
// Subject: events.todo.v1.todo-created
var TodoCreatedV1 = helper.EventDefinition[TodoCreatedEvent](
	"todo", "TodoCreated", "v1",
)

// TodoUpdatedEvent is emitted when a todo is replaced via PUT.
type TodoUpdatedEvent struct {
	TodoID    int64     `json:"todo_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoUpdatedV1 is the typed event definition for todo replacement.
// Subject: events.todo.v1.todo-updated
var TodoUpdatedV1 = helper.EventDefinition[TodoUpdatedEvent](
	"todo", "TodoUpdated", "v1",
)

// TodoToggledEvent is emitted when a todo's completed flag is flipped.
type TodoToggledEvent struct {
	TodoID    int64     `json:"todo_id"`
	Completed bool      `json:"completed"`
	ToggledAt time.Time `json:"toggled_at"`
}

// TodoToggledV1 is the typed event definition for completion toggles.
// Subject: events.todo.v1.todo-toggled
var TodoToggledV1 = helper.EventDefinition[TodoToggledEvent](
	"todo", "TodoToggled", "v1",
)

// TodoDeletedEvent is emitted when a todo is deleted.
type TodoDeletedEvent struct {
	TodoID    int64     `json:"todo_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TodoDeletedV1 is the typed event definition for todo deletion.
// Subject: events.todo.v1.todo-deleted
var TodoDeletedV1 = helper.EventDefinition[TodoDeletedEvent](
	"todo", "TodoDeleted", "v1",
)
