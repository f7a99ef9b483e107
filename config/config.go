// Package config loads server configuration from defaults, an optional TOML
// file and the environment, in that order.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultHTTPPort        = 5000
	DefaultStoreDriver     = "sqlite"
	DefaultDBPath          = "./todos.db"
	DefaultMaxConns        = 10
	DefaultCachePrefix     = "todo:"
	DefaultCacheTTL        = 5 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second
	DefaultLogLevel        = "info"
)

// Config holds the server settings.
type Config struct {
	HTTPPort int `toml:"http_port"`

	Store StoreConfig `toml:"store"`
	Cache CacheConfig `toml:"cache"`

	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	LogLevel        string   `toml:"log_level"`
}

// StoreConfig selects and sizes the relational store.
type StoreConfig struct {
	Driver      string `toml:"driver"` // "sqlite" or "postgres"
	Path        string `toml:"path"`
	DatabaseURL string `toml:"database_url"`
	MaxConns    int    `toml:"max_conns"`
	Debug       bool   `toml:"debug"`
}

// CacheConfig configures the optional Redis read cache. An empty Addr
// disables it.
type CacheConfig struct {
	Addr   string   `toml:"addr"`
	Prefix string   `toml:"prefix"`
	TTL    Duration `toml:"ttl"`
}

// Enabled reports whether a Redis address was configured.
func (c CacheConfig) Enabled() bool {
	return c.Addr != ""
}

// Duration wraps time.Duration so TOML files can use strings like "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// Load builds the configuration. If TODO_CONFIG names a file it is decoded
// over the defaults; environment variables override both.
func Load() (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path := os.Getenv("TODO_CONFIG"); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTPPort)
	}
	if c.Store.MaxConns <= 0 {
		return fmt.Errorf("max conns must be positive, got %d", c.Store.MaxConns)
	}
	switch c.LogLevel {
	case "info", "error":
	default:
		return fmt.Errorf("unsupported log level %q (want info or error)", c.LogLevel)
	}
	return nil
}

func setDefaults(cfg *Config) {
	cfg.HTTPPort = DefaultHTTPPort
	cfg.Store.Driver = DefaultStoreDriver
	cfg.Store.Path = DefaultDBPath
	cfg.Store.MaxConns = DefaultMaxConns
	cfg.Cache.Prefix = DefaultCachePrefix
	cfg.Cache.TTL = Duration{DefaultCacheTTL}
	cfg.ShutdownTimeout = Duration{DefaultShutdownTimeout}
	cfg.LogLevel = DefaultLogLevel
}

func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

func loadFromEnv(cfg *Config) {
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.Path = getEnv("DB_PATH", cfg.Store.Path)
	cfg.Store.DatabaseURL = getEnv("DATABASE_URL", cfg.Store.DatabaseURL)
	cfg.Store.MaxConns = getEnvInt("DB_MAX_CONNS", cfg.Store.MaxConns)
	cfg.Store.Debug = getEnvBool("DB_DEBUG", cfg.Store.Debug)
	cfg.Cache.Addr = getEnv("REDIS_ADDR", cfg.Cache.Addr)
	cfg.Cache.Prefix = getEnv("CACHE_PREFIX", cfg.Cache.Prefix)
	cfg.Cache.TTL.Duration = getEnvDuration("CACHE_TTL", cfg.Cache.TTL.Duration)
	cfg.ShutdownTimeout.Duration = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout.Duration)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
}

// getEnv returns environment variable or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	s := strings.ToLower(strings.TrimSpace(value))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
