package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS todos (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const todoColumns = "id, title, description, completed, created_at, updated_at"

// PgxRepository stores todos in PostgreSQL through a pgx connection pool.
type PgxRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PgxRepository)(nil)

// NewPgxRepository wraps an existing pool.
func NewPgxRepository(pool *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

// OpenPostgres creates a pool of at most maxConns connections and verifies
// it with a ping. Callers beyond maxConns wait for a free connection.
func OpenPostgres(ctx context.Context, databaseURL string, maxConns int) (*PgxRepository, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPgxRepository(pool), nil
}

// Migrate creates the todos table.
func (r *PgxRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create todos table: %w", err)
	}
	return nil
}

// Create inserts a new todo and reads it back.
func (r *PgxRepository) Create(ctx context.Context, title, description string) (*Todo, error) {
	now := time.Now().UTC()

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO todos (title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, FALSE, $3, $3) RETURNING id`,
		title, description, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return r.FindByID(ctx, id)
}

// FindAll retrieves all todos, newest first.
func (r *PgxRepository) FindAll(ctx context.Context) ([]Todo, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+todoColumns+" FROM todos ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to find todos: %w", err)
	}

	todos, err := pgx.CollectRows(rows, scanTodo)
	if err != nil {
		return nil, fmt.Errorf("failed to scan todos: %w", err)
	}
	return todos, nil
}

// FindByID retrieves a todo by its ID.
func (r *PgxRepository) FindByID(ctx context.Context, id int64) (*Todo, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+todoColumns+" FROM todos WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTodo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return &t, nil
}

// Update overwrites the mutable fields of an existing todo.
func (r *PgxRepository) Update(ctx context.Context, id int64, title, description string, completed bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET title = $1, description = $2, completed = $3, updated_at = $4 WHERE id = $5`,
		title, description, completed, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCompleted writes the completed flag of an existing todo.
func (r *PgxRepository) SetCompleted(ctx context.Context, id int64, completed bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET completed = $1, updated_at = $2 WHERE id = $3`,
		completed, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a todo by ID.
func (r *PgxRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM todos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the pool.
func (r *PgxRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Driver returns "postgres".
func (r *PgxRepository) Driver() string {
	return "postgres"
}

// Close closes every connection in the pool.
func (r *PgxRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanTodo(row pgx.CollectableRow) (Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, err
}
