package main

import (
	"context"
	"log"
	"os"

	"github.com/example/todo-app/config"
	domain "github.com/example/todo-app/domain/todo"
	"github.com/example/todo-app/modules/activity"
	"github.com/example/todo-app/modules/api"
	"github.com/example/todo-app/modules/cache"
	"github.com/example/todo-app/modules/todo"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Todo App ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout.Duration),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Plugins start before and stop after regular modules.
	if cfg.Cache.Enabled() {
		cachePlugin := cache.NewPluginModule(cfg.Cache.Addr, cfg.Cache.Prefix, cfg.Cache.TTL.Duration)
		if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
	}

	// Order: independent modules first, then modules with dependencies
	modules := []mono.Module{
		activity.NewModule(),
		todo.NewModule(domain.Options{
			Driver:      cfg.Store.Driver,
			Path:        cfg.Store.Path,
			DatabaseURL: cfg.Store.DatabaseURL,
			MaxConns:    cfg.Store.MaxConns,
			Debug:       cfg.Store.Debug,
		}),
		api.NewModule(cfg.HTTPPort),
	}
	for _, module := range modules {
		if err := app.Register(module); err != nil {
			log.Fatalf("Failed to register module %s: %v", module.Name(), err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout.Duration,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Store: %s", cfg.Store.Driver)
	if cfg.Cache.Enabled() {
		log.Printf("Cache: redis at %s (TTL %s)", cfg.Cache.Addr, cfg.Cache.TTL)
	} else {
		log.Println("Cache: disabled (set REDIS_ADDR to enable)")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.HTTPPort)
	log.Println("  GET    /api/todos            - List all todos")
	log.Println("  GET    /api/todos/:id        - Get a todo by ID")
	log.Println("  POST   /api/todos            - Create a todo")
	log.Println("  PUT    /api/todos/:id        - Replace a todo")
	log.Println("  PATCH  /api/todos/:id/toggle - Toggle completion")
	log.Println("  DELETE /api/todos/:id        - Delete a todo")
	log.Println("  GET    /health               - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
