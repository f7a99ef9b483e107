package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS todos (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
)`

// todoRow is the SQLite row layout. SQLite has no boolean type, so the
// completed flag is stored as 0/1 and converted at this boundary.
type todoRow struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	Title       string
	Description string
	Completed   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for todoRow.
func (todoRow) TableName() string {
	return "todos"
}

func (r todoRow) toTodo() Todo {
	return Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed != 0,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GormRepository stores todos in SQLite through GORM.
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository wraps an open GORM handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// OpenSQLite opens the SQLite database at path with a pool bounded by
// maxConns. In-memory databases are pinned to a single connection since
// every new connection would otherwise see its own empty database.
func OpenSQLite(path string, maxConns int, debug bool) (*GormRepository, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if isMemoryPath(path) {
		maxConns = 1
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns)
	}

	return NewGormRepository(db), nil
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

// sqliteDSN adds a busy timeout so concurrent writers wait on the
// database lock instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	if isMemoryPath(path) || strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

// Migrate creates the todos table.
func (r *GormRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec(sqliteSchema).Error; err != nil {
		return fmt.Errorf("failed to create todos table: %w", err)
	}
	return nil
}

// Create inserts a new todo and reads it back.
func (r *GormRepository) Create(ctx context.Context, title, description string) (*Todo, error) {
	now := time.Now().UTC()
	row := todoRow{
		Title:       title,
		Description: description,
		Completed:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return r.FindByID(ctx, row.ID)
}

// FindAll retrieves all todos, newest first.
func (r *GormRepository) FindAll(ctx context.Context) ([]Todo, error) {
	var rows []todoRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find todos: %w", err)
	}

	todos := make([]Todo, 0, len(rows))
	for _, row := range rows {
		todos = append(todos, row.toTodo())
	}
	return todos, nil
}

// FindByID retrieves a todo by its ID.
func (r *GormRepository) FindByID(ctx context.Context, id int64) (*Todo, error) {
	var row todoRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	t := row.toTodo()
	return &t, nil
}

// Update overwrites the mutable fields of an existing todo.
func (r *GormRepository) Update(ctx context.Context, id int64, title, description string, completed bool) error {
	return r.updateColumns(ctx, id, map[string]any{
		"title":       title,
		"description": description,
		"completed":   boolToInt(completed),
	})
}

// SetCompleted writes the completed flag of an existing todo.
func (r *GormRepository) SetCompleted(ctx context.Context, id int64, completed bool) error {
	return r.updateColumns(ctx, id, map[string]any{
		"completed": boolToInt(completed),
	})
}

func (r *GormRepository) updateColumns(ctx context.Context, id int64, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&todoRow{}).Where("id = ?", id).Updates(cols)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a todo by ID.
func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&todoRow{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Driver returns "sqlite".
func (r *GormRepository) Driver() string {
	return "sqlite"
}

// Close closes the underlying connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
