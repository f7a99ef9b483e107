package todo

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	domain "github.com/example/todo-app/domain/todo"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/modules/cache"
	"github.com/go-monolith/mono"
	"golang.org/x/sync/singleflight"
)

// Service implements TodoPort on top of a Repository. The cache and event
// bus are optional.
type Service struct {
	repo     domain.Repository
	cache    cache.CacheService
	eventBus mono.EventBus
	sfGroup  singleflight.Group

	// cacheMu orders cache writes against each other. cacheGen is bumped by
	// every mutation, so a miss-fill that raced a mutation is dropped.
	cacheMu  sync.Mutex
	cacheGen uint64
}

var _ TodoPort = (*Service)(nil)

// NewService creates a todo service. c and bus may be nil.
func NewService(repo domain.Repository, c cache.CacheService, bus mono.EventBus) *Service {
	return &Service{
		repo:     repo,
		cache:    c,
		eventBus: bus,
	}
}

func cacheKeyByID(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

// List returns every todo, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Todo, error) {
	return s.repo.FindAll(ctx)
}

// Get returns a todo by id, reading through the cache when one is configured.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	if s.cache == nil {
		return s.repo.FindByID(ctx, id)
	}

	key := cacheKeyByID(id)
	var cached domain.Todo
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[todo] Cache error for ID=%d: %v", id, err)
	}
	if found {
		return &cached, nil
	}

	gen := s.generation()
	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	t := *val.(*domain.Todo)
	s.fillCache(ctx, &t, gen)
	return &t, nil
}

// Create inserts a new todo. An empty title fails with domain.ErrValidation
// and nothing is written.
func (s *Service) Create(ctx context.Context, title, description string) (*domain.Todo, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	t, err := s.repo.Create(ctx, title, description)
	if err != nil {
		return nil, err
	}
	s.cacheTodo(ctx, t)

	s.publish(func(bus mono.EventBus) error {
		return events.TodoCreatedV1.Publish(bus, events.TodoCreatedEvent{
			TodoID:      t.ID,
			Title:       t.Title,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		}, nil)
	}, "TodoCreated", t.ID)

	return t, nil
}

// Replace overwrites title, description and completed and returns the
// stored row.
func (s *Service) Replace(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, title, description, completed); err != nil {
		return nil, err
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.evictCache(ctx, id)
		return nil, err
	}
	s.cacheTodo(ctx, t)

	s.publish(func(bus mono.EventBus) error {
		return events.TodoUpdatedV1.Publish(bus, events.TodoUpdatedEvent{
			TodoID:    t.ID,
			Title:     t.Title,
			Completed: t.Completed,
			UpdatedAt: t.UpdatedAt,
		}, nil)
	}, "TodoUpdated", t.ID)

	return t, nil
}

// Toggle flips the completed flag. The read and the write are separate
// statements, so concurrent toggles of one todo resolve last-write-wins.
func (s *Service) Toggle(ctx context.Context, id int64) (*domain.Todo, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetCompleted(ctx, id, !current.Completed); err != nil {
		return nil, err
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.evictCache(ctx, id)
		return nil, err
	}
	s.cacheTodo(ctx, t)

	s.publish(func(bus mono.EventBus) error {
		return events.TodoToggledV1.Publish(bus, events.TodoToggledEvent{
			TodoID:    t.ID,
			Completed: t.Completed,
			ToggledAt: t.UpdatedAt,
		}, nil)
	}, "TodoToggled", t.ID)

	return t, nil
}

// Delete removes a todo permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.evictCache(ctx, id)

	s.publish(func(bus mono.EventBus) error {
		return events.TodoDeletedV1.Publish(bus, events.TodoDeletedEvent{
			TodoID:    id,
			DeletedAt: time.Now().UTC(),
		}, nil)
	}, "TodoDeleted", id)

	return nil
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

func (s *Service) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// fillCache stores a row read on a cache miss, unless a mutation ran since
// gen was taken. The read may predate that mutation.
func (s *Service) fillCache(ctx context.Context, t *domain.Todo, gen uint64) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheGen != gen {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyByID(t.ID), t); err != nil {
		log.Printf("[todo] Warning: failed to cache todo ID=%d: %v", t.ID, err)
	}
}

// cacheTodo writes a freshly mutated row through. If the write fails the
// key is evicted so the previous value is never served.
func (s *Service) cacheTodo(ctx context.Context, t *domain.Todo) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++
	key := cacheKeyByID(t.ID)
	if err := s.cache.Set(ctx, key, t); err != nil {
		log.Printf("[todo] Warning: failed to cache todo ID=%d, evicting: %v", t.ID, err)
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("[todo] Warning: failed to evict todo ID=%d: %v", t.ID, err)
		}
	}
}

func (s *Service) evictCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++
	if err := s.cache.Delete(ctx, cacheKeyByID(id)); err != nil {
		log.Printf("[todo] Warning: failed to invalidate cache for ID=%d: %v", id, err)
	}
}

// publish is best-effort: a failure is logged and never fails the operation.
func (s *Service) publish(fn func(mono.EventBus) error, name string, id int64) {
	if s.eventBus == nil {
		return
	}
	if err := fn(s.eventBus); err != nil {
		log.Printf("[todo] Warning: failed to publish %s event for todo %d: %v", name, id, err)
	}
}
