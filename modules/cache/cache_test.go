package cache

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/storage/redis/v3"
)

const testRedisAddr = "localhost:6379"

// memStorage is an in-process Storage used where Redis is not needed.
type memStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	failOn string
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (s *memStorage) GetWithContext(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "get" {
		return nil, errors.New("connection refused")
	}
	return s.data[key], nil
}

func (s *memStorage) SetWithContext(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = val
	return nil
}

func (s *memStorage) DeleteWithContext(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStorage) Close() error { return nil }

type item struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func TestCacheService_SetAndGet(t *testing.T) {
	store := newMemStorage()
	svc := NewCacheService(store, "test:", time.Minute)
	ctx := context.Background()

	if err := svc.Set(ctx, "1", item{ID: 1, Title: "Buy milk"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok := store.data["test:1"]; !ok {
		t.Fatal("expected value stored under prefixed key")
	}

	var got item
	found, err := svc.Get(ctx, "1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() returned found = false, want true")
	}
	if got.ID != 1 || got.Title != "Buy milk" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestCacheService_MissAndDelete(t *testing.T) {
	svc := NewCacheService(newMemStorage(), "test:", time.Minute)
	ctx := context.Background()

	var got item
	found, err := svc.Get(ctx, "missing", &got)
	if err != nil || found {
		t.Fatalf("Get(missing) = %v, %v; want miss", found, err)
	}

	if err := svc.Set(ctx, "2", item{ID: 2}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := svc.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if found, _ := svc.Get(ctx, "2", &got); found {
		t.Error("key should not exist after deletion")
	}
}

func TestCacheService_Stats(t *testing.T) {
	store := newMemStorage()
	svc := NewCacheService(store, "", time.Minute)
	ctx := context.Background()

	var got item
	svc.Get(ctx, "a", &got)
	svc.Set(ctx, "a", item{ID: 1})
	svc.Get(ctx, "a", &got)
	svc.Get(ctx, "a", &got)
	svc.Delete(ctx, "a")

	store.failOn = "get"
	if _, err := svc.Get(ctx, "a", &got); err == nil {
		t.Error("expected error from failing storage")
	}

	s := svc.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Sets != 1 || s.Deletes != 1 || s.Errors != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.TotalGets != 3 {
		t.Errorf("TotalGets = %d, want 3", s.TotalGets)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("HitRate = %f, want ~0.667", s.HitRate)
	}
}

func TestPluginModule_InjectedStorage(t *testing.T) {
	m := NewPluginModuleWithStorage(newMemStorage(), "todo:", time.Minute)
	ctx := context.Background()

	if m.Name() != "cache" {
		t.Errorf("Name() = %q, want cache", m.Name())
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if m.Port() == nil {
		t.Fatal("Port() returned nil after Start")
	}

	health := m.Health(ctx)
	if !health.Healthy {
		t.Errorf("Health() = %+v, want healthy", health)
	}
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestPluginModule_HealthBeforeStart(t *testing.T) {
	m := NewPluginModule(testRedisAddr, "todo:", time.Minute)
	if m.Health(context.Background()).Healthy {
		t.Error("expected unhealthy before Start")
	}
}

func TestParseRedisAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
	}{
		{"localhost:6379", "localhost", 6379},
		{"redis:6380", "redis", 6380},
		{":6379", "127.0.0.1", 6379},
		{"redis:abc", "redis", 6379},
		{"", "127.0.0.1", 6379},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port := parseRedisAddr(tt.addr)
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("parseRedisAddr(%q) = %s:%d, want %s:%d", tt.addr, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

// checkRedisAvailable skips the test when Redis is not reachable.
// gofiber/storage/redis panics on connection failure, so check first.
func checkRedisAvailable(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", testRedisAddr, 2*time.Second)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	conn.Close()
}

func TestCacheService_Redis(t *testing.T) {
	checkRedisAvailable(t)

	storage := redis.New(redis.Config{Host: "localhost", Port: 6379})
	svc := NewCacheService(storage, "test:todo:", time.Minute)
	defer svc.Close()
	ctx := context.Background()

	if err := svc.Set(ctx, "42", item{ID: 42, Title: "Redis"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	t.Cleanup(func() { storage.DeleteWithContext(context.Background(), "test:todo:42") })

	raw, err := storage.Get("test:todo:42")
	if err != nil {
		t.Fatalf("direct storage Get error = %v", err)
	}
	if string(raw) != `{"id":42,"title":"Redis"}` {
		t.Errorf("stored value = %s", raw)
	}

	var got item
	found, err := svc.Get(ctx, "42", &got)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if got.Title != "Redis" {
		t.Errorf("Title = %q, want Redis", got.Title)
	}
}

func TestPluginModule_Redis(t *testing.T) {
	checkRedisAvailable(t)

	m := NewPluginModule(testRedisAddr, "test:plugin:", time.Minute)
	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop(ctx)

	if h := m.Health(ctx); !h.Healthy {
		t.Errorf("Health() = %+v, want healthy", h)
	}
}
