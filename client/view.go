package client

import (
	"context"
	"strings"

	domain "github.com/example/todo-app/domain/todo"
)

// Error messages shown to the user. A new message replaces the previous one.
const (
	MsgFetchFailed  = "Failed to fetch todos"
	MsgAddFailed    = "Failed to add todo"
	MsgUpdateFailed = "Failed to update todo"
	MsgToggleFailed = "Failed to toggle todo"
	MsgDeleteFailed = "Failed to delete todo"
)

// TodoAPI is the subset of the HTTP client the view drives.
type TodoAPI interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Create(ctx context.Context, title, description string) (*domain.Todo, error)
	Replace(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error)
	Toggle(ctx context.Context, id int64) (*domain.Todo, error)
	Delete(ctx context.Context, id int64) error
}

var _ TodoAPI = (*Client)(nil)

// FormMode is either Creating or Editing.
type FormMode interface {
	formMode()
}

// Creating means submitting the form adds a new todo.
type Creating struct{}

// Editing means submitting the form replaces the todo with ID.
type Editing struct {
	ID int64
}

func (Creating) formMode() {}
func (Editing) formMode()  {}

// Task performs a single API call and reports what happened.
type Task func(ctx context.Context, api TodoAPI) Result

// Result is the outcome of a Task, merged with View.Apply.
type Result interface {
	result()
}

// Loaded carries the initial list fetch.
type Loaded struct {
	Todos []domain.Todo
	Err   error
}

// Created carries a create request's response.
type Created struct {
	Todo *domain.Todo
	Err  error
}

// Replaced carries a replace request's response for ID.
type Replaced struct {
	ID   int64
	Todo *domain.Todo
	Err  error
}

// Toggled carries a toggle request's response for ID.
type Toggled struct {
	ID   int64
	Todo *domain.Todo
	Err  error
}

// Deleted carries a delete request's outcome for ID.
type Deleted struct {
	ID  int64
	Err error
}

func (Loaded) result()   {}
func (Created) result()  {}
func (Replaced) result() {}
func (Toggled) result()  {}
func (Deleted) result()  {}

// View is the client's cached copy of the todo list plus the form state.
// It only ever reflects rows confirmed by the server.
type View struct {
	Todos       []domain.Todo
	Mode        FormMode
	Title       string
	Description string
	Loading     bool
	Err         string

	// PendingDelete is the id awaiting confirmation, or 0.
	PendingDelete int64
}

// NewView returns an empty view in create mode.
func NewView() *View {
	return &View{Todos: []domain.Todo{}, Mode: Creating{}}
}

// Editing reports whether the form is editing an existing todo.
func (v *View) Editing() bool {
	_, ok := v.Mode.(Editing)
	return ok
}

// Load starts the initial list fetch.
func (v *View) Load() Task {
	v.Loading = true
	return func(ctx context.Context, api TodoAPI) Result {
		todos, err := api.List(ctx)
		return Loaded{Todos: todos, Err: err}
	}
}

// Submit sends the form. It returns nil when there is nothing to send.
func (v *View) Submit() Task {
	if strings.TrimSpace(v.Title) == "" {
		return nil
	}
	title, description := v.Title, v.Description

	switch mode := v.Mode.(type) {
	case Editing:
		current := v.find(mode.ID)
		if current == nil {
			v.Err = MsgUpdateFailed
			return nil
		}
		id, completed := mode.ID, current.Completed
		return func(ctx context.Context, api TodoAPI) Result {
			t, err := api.Replace(ctx, id, title, description, completed)
			return Replaced{ID: id, Todo: t, Err: err}
		}
	default:
		return func(ctx context.Context, api TodoAPI) Result {
			t, err := api.Create(ctx, title, description)
			return Created{Todo: t, Err: err}
		}
	}
}

// StartEdit fills the form with the todo and switches to edit mode.
func (v *View) StartEdit(id int64) {
	t := v.find(id)
	if t == nil {
		return
	}
	v.Mode = Editing{ID: id}
	v.Title = t.Title
	v.Description = t.Description
}

// CancelEdit clears the form and returns to create mode.
func (v *View) CancelEdit() {
	v.resetForm()
}

// Toggle flips the completion of the todo with id.
func (v *View) Toggle(id int64) Task {
	return func(ctx context.Context, api TodoAPI) Result {
		t, err := api.Toggle(ctx, id)
		return Toggled{ID: id, Todo: t, Err: err}
	}
}

// RequestDelete asks for confirmation before deleting id.
func (v *View) RequestDelete(id int64) {
	if v.find(id) == nil {
		return
	}
	v.PendingDelete = id
}

// CancelDelete drops a pending delete.
func (v *View) CancelDelete() {
	v.PendingDelete = 0
}

// ConfirmDelete sends the pending delete, if any.
func (v *View) ConfirmDelete() Task {
	id := v.PendingDelete
	if id == 0 {
		return nil
	}
	v.PendingDelete = 0
	return func(ctx context.Context, api TodoAPI) Result {
		return Deleted{ID: id, Err: api.Delete(ctx, id)}
	}
}

// Apply merges a task result into the current state. Failures set the
// error message and leave the cached list untouched.
func (v *View) Apply(r Result) {
	switch r := r.(type) {
	case Loaded:
		v.Loading = false
		if r.Err != nil {
			v.Err = MsgFetchFailed
			return
		}
		v.Todos = r.Todos
		if v.Todos == nil {
			v.Todos = []domain.Todo{}
		}
		v.Err = ""

	case Created:
		if r.Err != nil || r.Todo == nil {
			v.Err = MsgAddFailed
			return
		}
		v.Todos = append([]domain.Todo{*r.Todo}, v.Todos...)
		v.Title, v.Description = "", ""
		v.Err = ""

	case Replaced:
		if r.Err != nil || r.Todo == nil {
			v.Err = MsgUpdateFailed
			return
		}
		v.replace(r.ID, *r.Todo)
		if mode, ok := v.Mode.(Editing); ok && mode.ID == r.ID {
			v.resetForm()
		}
		v.Err = ""

	case Toggled:
		if r.Err != nil || r.Todo == nil {
			v.Err = MsgToggleFailed
			return
		}
		v.replace(r.ID, *r.Todo)
		v.Err = ""

	case Deleted:
		if r.Err != nil {
			v.Err = MsgDeleteFailed
			return
		}
		v.remove(r.ID)
		if mode, ok := v.Mode.(Editing); ok && mode.ID == r.ID {
			v.resetForm()
		}
		v.Err = ""
	}
}

func (v *View) find(id int64) *domain.Todo {
	for i := range v.Todos {
		if v.Todos[i].ID == id {
			return &v.Todos[i]
		}
	}
	return nil
}

// replace swaps the cached row with id. Rows are copied so earlier
// snapshots of Todos are never mutated.
func (v *View) replace(id int64, t domain.Todo) {
	next := make([]domain.Todo, len(v.Todos))
	for i, cur := range v.Todos {
		if cur.ID == id {
			next[i] = t
		} else {
			next[i] = cur
		}
	}
	v.Todos = next
}

func (v *View) remove(id int64) {
	next := make([]domain.Todo, 0, len(v.Todos))
	for _, cur := range v.Todos {
		if cur.ID != id {
			next = append(next, cur)
		}
	}
	v.Todos = next
}

func (v *View) resetForm() {
	v.Mode = Creating{}
	v.Title = ""
	v.Description = ""
}
