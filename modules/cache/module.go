package cache

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/storage/redis/v3"
)

// PluginModule provides the todo read cache as a mono plugin module.
// Plugins start before and stop after regular modules.
type PluginModule struct {
	container types.ServiceContainer
	redis     *redis.Storage
	storage   Storage
	service   CacheService
	redisAddr string
	prefix    string
	ttl       time.Duration
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a cache plugin backed by Redis at redisAddr.
func NewPluginModule(redisAddr, prefix string, ttl time.Duration) *PluginModule {
	return &PluginModule{
		redisAddr: redisAddr,
		prefix:    prefix,
		ttl:       ttl,
	}
}

// NewPluginModuleWithStorage creates a cache plugin over an existing backend.
func NewPluginModuleWithStorage(s Storage, prefix string, ttl time.Duration) *PluginModule {
	return &PluginModule{
		storage: s,
		service: NewCacheService(s, prefix, ttl),
		prefix:  prefix,
		ttl:     ttl,
	}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "cache"
}

// Start connects to Redis unless a backend was injected.
func (m *PluginModule) Start(_ context.Context) error {
	if m.service != nil {
		log.Println("[cache] Plugin started with injected storage")
		return nil
	}

	host, port := parseRedisAddr(m.redisAddr)
	m.redis = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		PoolSize: 50,
	})
	m.storage = m.redis
	m.service = NewCacheService(m.storage, m.prefix, m.ttl)

	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.redisAddr, m.prefix, m.ttl)
	return nil
}

// Stop closes the Redis connection.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.service != nil {
		if err := m.service.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	log.Println("[cache] Plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the CacheService consumers use. It is nil before Start.
func (m *PluginModule) Port() CacheService {
	return m.service
}

// Health pings Redis and reports hit statistics.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}

	var err error
	if m.redis != nil {
		err = m.redis.Conn().Ping(ctx).Err()
	} else {
		_, err = m.storage.GetWithContext(ctx, m.prefix+"__health_check__")
	}
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("health check failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.redisAddr,
			"prefix":     m.prefix,
			"ttl":        m.ttl.String(),
			"stats":      m.service.Stats(),
		},
	}
}

// parseRedisAddr parses "host:port", falling back to 127.0.0.1:6379.
func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}
	return host, port
}
