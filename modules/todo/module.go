package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	domain "github.com/example/todo-app/domain/todo"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TodoModule owns the todo store and exposes the todo operations as
// request-reply services (core domain).
type TodoModule struct {
	opts        domain.Options
	repo        domain.Repository
	service     *Service
	cachePlugin *cache.PluginModule
	eventBus    mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*TodoModule)(nil)
var _ mono.ServiceProviderModule = (*TodoModule)(nil)
var _ mono.EventEmitterModule = (*TodoModule)(nil)
var _ mono.UsePluginModule = (*TodoModule)(nil)
var _ mono.HealthCheckableModule = (*TodoModule)(nil)

// NewModule creates a todo module that opens the store described by opts on Start.
func NewModule(opts domain.Options) *TodoModule {
	return &TodoModule{opts: opts}
}

// NewModuleWithRepository creates a todo module over an already open store.
func NewModuleWithRepository(repo domain.Repository) *TodoModule {
	return &TodoModule{repo: repo}
}

// Name returns the module name.
func (m *TodoModule) Name() string {
	return "todo"
}

// SetPlugin receives the optional cache plugin.
func (m *TodoModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if cachePlugin, ok := plugin.(*cache.PluginModule); ok {
		m.cachePlugin = cachePlugin
		log.Println("[todo] Cache plugin injected")
	}
}

func (m *TodoModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TodoModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TodoCreatedV1.ToBase(),
		events.TodoUpdatedV1.ToBase(),
		events.TodoToggledV1.ToBase(),
		events.TodoDeletedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
// The framework prefixes names with "services.todo.".
func (m *TodoModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "replace", json.Unmarshal, json.Marshal, m.handleReplace,
	); err != nil {
		return fmt.Errorf("failed to register replace service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle", json.Unmarshal, json.Marshal, m.handleToggle,
	); err != nil {
		return fmt.Errorf("failed to register toggle service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	log.Printf("[todo] Registered services: services.todo.{list,get,create,replace,toggle,delete}")
	return nil
}

// Start opens the store (unless one was injected) and builds the service.
func (m *TodoModule) Start(ctx context.Context) error {
	if m.repo == nil {
		log.Printf("[todo] Connecting to %s store...", m.opts.Driver)
		repo, err := domain.Open(ctx, m.opts)
		if err != nil {
			return err
		}
		m.repo = repo
	}

	var c cache.CacheService
	if m.cachePlugin != nil {
		c = m.cachePlugin.Port()
	}
	if c == nil {
		log.Println("[todo] Cache disabled, reads go to the store")
	}
	if m.eventBus == nil {
		log.Println("[todo] Warning: eventBus not set, events will not be published")
	}

	m.service = NewService(m.repo, c, m.eventBus)

	log.Printf("[todo] Module started (driver: %s)", m.repo.Driver())
	return nil
}

// Stop closes the store connection pool.
func (m *TodoModule) Stop(_ context.Context) error {
	if m.repo == nil {
		return nil
	}

	log.Println("[todo] Closing database connection...")
	if err := m.repo.Close(); err != nil {
		return err
	}
	log.Println("[todo] Module stopped")
	return nil
}

// Health pings the store.
func (m *TodoModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	if err := m.service.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.repo.Driver(),
			"cache":  m.service.cache != nil,
		},
	}
}

func (m *TodoModule) handleList(ctx context.Context, _ ListRequest, _ *mono.Msg) (ListResponse, error) {
	todos, err := m.service.List(ctx)
	if err != nil {
		return ListResponse{}, err
	}
	return ListResponse{Todos: todos, Total: len(todos)}, nil
}

func (m *TodoModule) handleGet(ctx context.Context, req GetRequest, _ *mono.Msg) (TodoReply, error) {
	return todoReply(m.service.Get(ctx, req.ID))
}

func (m *TodoModule) handleCreate(ctx context.Context, req CreateRequest, _ *mono.Msg) (TodoReply, error) {
	return todoReply(m.service.Create(ctx, req.Title, req.Description))
}

func (m *TodoModule) handleReplace(ctx context.Context, req ReplaceRequest, _ *mono.Msg) (TodoReply, error) {
	return todoReply(m.service.Replace(ctx, req.ID, req.Title, req.Description, req.Completed))
}

func (m *TodoModule) handleToggle(ctx context.Context, req ToggleRequest, _ *mono.Msg) (TodoReply, error) {
	return todoReply(m.service.Toggle(ctx, req.ID))
}

func (m *TodoModule) handleDelete(ctx context.Context, req DeleteRequest, _ *mono.Msg) (DeleteReply, error) {
	err := m.service.Delete(ctx, req.ID)
	outcome, unexpected := classify(err)
	if unexpected != nil {
		return DeleteReply{}, unexpected
	}
	reply := DeleteReply{Deleted: outcome == OutcomeOK, Outcome: outcome}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply, nil
}

// todoReply turns expected domain failures into reply outcomes. Anything
// else is returned as a service error.
func todoReply(t *domain.Todo, err error) (TodoReply, error) {
	outcome, unexpected := classify(err)
	if unexpected != nil {
		return TodoReply{}, unexpected
	}
	reply := TodoReply{Todo: t, Outcome: outcome}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply, nil
}

func classify(err error) (Outcome, error) {
	switch {
	case err == nil:
		return OutcomeOK, nil
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound, nil
	case errors.Is(err, domain.ErrValidation):
		return OutcomeInvalid, nil
	default:
		return "", err
	}
}
