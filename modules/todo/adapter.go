package todo

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/todo-app/domain/todo"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// todoAdapter implements TodoPort over the todo module's request-reply services.
type todoAdapter struct {
	container mono.ServiceContainer
}

// NewTodoAdapter creates a TodoPort backed by the todo module.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewTodoAdapter(container mono.ServiceContainer) TodoPort {
	if container == nil {
		panic("todo adapter requires non-nil ServiceContainer")
	}
	return &todoAdapter{container: container}
}

func (a *todoAdapter) List(ctx context.Context) ([]domain.Todo, error) {
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list",
		json.Marshal,
		json.Unmarshal,
		&ListRequest{},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list service call failed: %w", err)
	}
	if resp.Todos == nil {
		resp.Todos = []domain.Todo{}
	}
	return resp.Todos, nil
}

func (a *todoAdapter) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	return callTodo(ctx, a.container, "get", &GetRequest{ID: id})
}

func (a *todoAdapter) Create(ctx context.Context, title, description string) (*domain.Todo, error) {
	return callTodo(ctx, a.container, "create", &CreateRequest{Title: title, Description: description})
}

func (a *todoAdapter) Replace(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error) {
	return callTodo(ctx, a.container, "replace", &ReplaceRequest{
		ID:          id,
		Title:       title,
		Description: description,
		Completed:   completed,
	})
}

func (a *todoAdapter) Toggle(ctx context.Context, id int64) (*domain.Todo, error) {
	return callTodo(ctx, a.container, "toggle", &ToggleRequest{ID: id})
}

func (a *todoAdapter) Delete(ctx context.Context, id int64) error {
	var resp DeleteReply
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete",
		json.Marshal,
		json.Unmarshal,
		&DeleteRequest{ID: id},
		&resp,
	); err != nil {
		return fmt.Errorf("delete service call failed: %w", err)
	}
	return outcomeError(resp.Outcome, resp.Error)
}

// callTodo calls a service that answers with a TodoReply.
func callTodo[Req any](ctx context.Context, container mono.ServiceContainer, service string, req *Req) (*domain.Todo, error) {
	var resp TodoReply
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", service, err)
	}
	if err := outcomeError(resp.Outcome, resp.Error); err != nil {
		return nil, err
	}
	if resp.Todo == nil {
		return nil, fmt.Errorf("%s service returned no todo", service)
	}
	return resp.Todo, nil
}

// outcomeError maps a reply outcome back to the domain sentinel errors.
func outcomeError(outcome Outcome, msg string) error {
	switch outcome {
	case OutcomeOK:
		return nil
	case OutcomeNotFound:
		return domain.ErrNotFound
	case OutcomeInvalid:
		return domain.ErrValidation
	default:
		return fmt.Errorf("unexpected outcome %q: %s", outcome, msg)
	}
}
