package todo

import (
	"context"
	"fmt"
)

// Repository provides access to todo storage.
type Repository interface {
	// Migrate creates the todos table if it does not exist.
	Migrate(ctx context.Context) error
	// Create inserts a todo with completed=false and returns the stored row.
	Create(ctx context.Context, title, description string) (*Todo, error)
	// FindAll returns every todo, newest first.
	FindAll(ctx context.Context) ([]Todo, error)
	FindByID(ctx context.Context, id int64) (*Todo, error)
	// Update overwrites title, description and completed and refreshes updated_at.
	Update(ctx context.Context, id int64, title, description string, completed bool) error
	// SetCompleted writes only the completed flag and refreshes updated_at.
	SetCompleted(ctx context.Context, id int64, completed bool) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Driver() string
	Close() error
}

// Options configures Open.
type Options struct {
	Driver      string // "sqlite" or "postgres"
	Path        string
	DatabaseURL string
	MaxConns    int
	Debug       bool
}

// Open connects to the configured store and ensures the schema exists.
func Open(ctx context.Context, opts Options) (Repository, error) {
	var (
		repo Repository
		err  error
	)

	switch opts.Driver {
	case "", "sqlite":
		repo, err = OpenSQLite(opts.Path, opts.MaxConns, opts.Debug)
	case "postgres":
		repo, err = OpenPostgres(ctx, opts.DatabaseURL, opts.MaxConns)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repo, nil
}
