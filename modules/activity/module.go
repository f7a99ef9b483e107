// Package activity records todo lifecycle events as they are published.
package activity

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

const (
	defaultCapacity = 100
	healthRecent    = 5
)

// Entry is one recorded event.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TodoID    int64     `json:"todo_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityModule consumes todo events and keeps the most recent entries in memory.
type ActivityModule struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.HealthCheckableModule = (*ActivityModule)(nil)

func NewModule() *ActivityModule {
	return NewModuleWithCapacity(defaultCapacity)
}

// NewModuleWithCapacity keeps at most capacity entries, dropping the oldest.
func NewModuleWithCapacity(capacity int) *ActivityModule {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &ActivityModule{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoCreatedV1, m.handleTodoCreated, m); err != nil {
		return fmt.Errorf("failed to register TodoCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoUpdatedV1, m.handleTodoUpdated, m); err != nil {
		return fmt.Errorf("failed to register TodoUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoToggledV1, m.handleTodoToggled, m); err != nil {
		return fmt.Errorf("failed to register TodoToggled consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoDeletedV1, m.handleTodoDeleted, m); err != nil {
		return fmt.Errorf("failed to register TodoDeleted consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: TodoCreated, TodoUpdated, TodoToggled, TodoDeleted")
	return nil
}

func (m *ActivityModule) handleTodoCreated(_ context.Context, event events.TodoCreatedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Todo created: %d - %s", event.TodoID, event.Title)
	m.record("todo_created", event.TodoID, fmt.Sprintf("Todo '%s' created", event.Title))
	return nil
}

func (m *ActivityModule) handleTodoUpdated(_ context.Context, event events.TodoUpdatedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Todo updated: %d - %s", event.TodoID, event.Title)
	m.record("todo_updated", event.TodoID, fmt.Sprintf("Todo %d updated", event.TodoID))
	return nil
}

func (m *ActivityModule) handleTodoToggled(_ context.Context, event events.TodoToggledEvent, _ *mono.Msg) error {
	state := "reopened"
	if event.Completed {
		state = "completed"
	}
	log.Printf("[activity] Todo %s: %d", state, event.TodoID)
	m.record("todo_toggled", event.TodoID, fmt.Sprintf("Todo %d %s", event.TodoID, state))
	return nil
}

func (m *ActivityModule) handleTodoDeleted(_ context.Context, event events.TodoDeletedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Todo deleted: %d", event.TodoID)
	m.record("todo_deleted", event.TodoID, fmt.Sprintf("Todo %d deleted", event.TodoID))
	return nil
}

func (m *ActivityModule) record(entryType string, todoID int64, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, Entry{
		ID:        uuid.New().String(),
		Type:      entryType,
		TodoID:    todoID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// Recent returns up to n of the latest entries, oldest first. n <= 0
// returns all of them.
func (m *ActivityModule) Recent(n int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if n > 0 && n < len(m.entries) {
		start = len(m.entries) - n
	}
	result := make([]Entry, len(m.entries)-start)
	copy(result, m.entries[start:])
	return result
}

// Health reports the entry count and the latest few messages.
func (m *ActivityModule) Health(_ context.Context) mono.HealthStatus {
	latest := m.Recent(healthRecent)
	messages := make([]string, 0, len(latest))
	for _, e := range latest {
		messages = append(messages, e.Message)
	}

	m.mu.RLock()
	count := len(m.entries)
	m.mu.RUnlock()

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"entries": count,
			"recent":  messages,
		},
	}
}

func (m *ActivityModule) Start(_ context.Context) error {
	log.Println("[activity] Module started - listening for todo events")
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	log.Println("[activity] Module stopped")
	return nil
}
